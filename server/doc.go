// Package server exposes the knowledge graph over HTTP.
//
// Routes are served by a chi router:
//
//	POST /ingest          ingest a document synchronously
//	GET  /search          entity search (q, k)
//	GET  /neighbors       bounded neighbor expansion (node_id, hops, limit)
//	GET  /graph/export    every node and edge
//	GET  /stats           graph statistics
//	GET  /health          store liveness
//	GET  /metrics         Prometheus exposition, when a collector is configured
//	GET  /stream          websocket broadcast stream, when a hub is configured
//
// Nodes and edges use the same wire form as broadcast messages, so a client
// can seed its view from /graph/export and apply /stream updates on top.
package server
