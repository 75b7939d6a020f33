// Package memory provides an in-memory token store.
//
// It implements the storage.TokenStore contract with sharded maps and a
// repository secondary index, and serves both tests and single-node
// development deployments. Range queries run through the same
// continuation-marker pagination as the durable backends so pagination
// behavior is exercised even without one.
package memory
