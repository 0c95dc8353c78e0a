package cache

// keyPrefix namespaces every key so a shared Redis can host other apps.
const keyPrefix = "autodesign:"

// SessionKey is the key holding the encoded session for sessionID.
func SessionKey(sessionID string) string {
	return keyPrefix + "session:" + sessionID
}

// SubmitRateKey is the per-session submission counter.
func SubmitRateKey(sessionID string) string {
	return keyPrefix + "ratelimit:submit:" + sessionID
}
