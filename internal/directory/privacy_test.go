package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func privateRecord() Record {
	return Record{
		"username":   "jdoe",
		"surname":    "Doe",
		"givenname":  "Jane",
		"human_name": "Jane Doe",
		"emails":     []string{"jdoe@example.test"},
		"is_private": true,
	}
}

func TestAnonymizeRedactsForOtherRequesters(t *testing.T) {
	rec := Anonymize(privateRecord(), "someone-else")

	assert.NotContains(t, rec, "surname")
	assert.NotContains(t, rec, "givenname")
	assert.NotContains(t, rec, "human_name")
	assert.Equal(t, "jdoe", rec["username"])
	assert.Equal(t, []string{"jdoe@example.test"}, rec["emails"],
		"emails are not in the private set")
}

func TestAnonymizeKeepsOwnRecordIntact(t *testing.T) {
	rec := Anonymize(privateRecord(), "jdoe")
	assert.Equal(t, "Doe", rec["surname"])
	assert.Equal(t, "Jane Doe", rec["human_name"])
}

func TestAnonymizeIgnoresPublicRecords(t *testing.T) {
	rec := Record{"username": "jdoe", "surname": "Doe"}
	rec = Anonymize(rec, "someone-else")
	assert.Equal(t, "Doe", rec["surname"])
}
