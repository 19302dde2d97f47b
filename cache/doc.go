/*
Package cache implements the hybrid LLM-response cache that sits in front of
a completion/chat gateway: a deterministic exact-match index combined with an
approximate semantic-similarity index and a per-conversation usage throttle.

# Lookup flow

 1. An exact match is attempted first: the request is normalized to a fixed
    field subset, hashed, and looked up under its workspace/endpoint key.
 2. On an exact miss, and only when an embedding provider is configured, a
    semantic search ranks the workspace/endpoint partition's entries by
    cosine similarity against the query embedding. The best candidate at or
    above the threshold is a hit.
 3. A semantic hit inside a conversation atomically increments that entry's
    per-conversation usage counter; once the counter reaches the cap the
    entry becomes invisible to further semantic lookups from that same
    conversation only.

# Failure semantics

The cache never propagates its own failures to the calling request path.
Store outages degrade every lookup to a miss and every store to a no-op;
embedding failures degrade to exact-match-only behavior; malformed entries
are evicted and treated as misses.

# Tenant isolation

Every entry belongs to exactly one workspace. Isolation is enforced twice:
by key partitioning, and by a defensive workspace equality check on every
candidate before it can be returned.
*/
package cache
