package utils

//run redis (optional: job store and PAGE_CACHE_BACKEND=redis)
//docker run -p 6379:6379 -d redis

//run qdrant (falls back to an in-memory index when offline)
//docker run -p 6333:6333 -p 6334:6334 -v localragVectors:/qdrant/storage qdrant/qdrant

//mcp mode (default): go run ./cmd/localrag
//http mode: go run ./cmd/localrag -mode=http -listen-addr=:3000
