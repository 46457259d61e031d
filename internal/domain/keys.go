package domain

// KeyPrefix namespaces every key this service writes to Redis/Valkey.
// Overridden once at startup from storage.key_prefix.
var KeyPrefix = "vecsync:"
