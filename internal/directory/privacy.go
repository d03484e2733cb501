package directory

// Anonymize strips private fields from a user record when the record is
// flagged private and the requester is not its subject. It runs after
// decoding and before projection, so masking a private field still behaves
// correctly against already-redacted data.
func Anonymize(rec Record, requester string) Record {
	private, _ := rec["is_private"].(bool)
	if !private {
		return rec
	}
	if username, _ := rec["username"].(string); username == requester {
		return rec
	}
	for _, field := range UserModel.Private {
		delete(rec, field)
	}
	return rec
}
