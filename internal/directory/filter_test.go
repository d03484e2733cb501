package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testBaseDN = "dc=example,dc=test"

func TestMatchFilterEscapesBeforeWildcards(t *testing.T) {
	got := matchFilter("sn", `a*b(c)\`, true)
	assert.Equal(t, `(sn=*a\2ab\28c\29\5c*)`, got,
		"metacharacters in the value never survive as wildcards or grouping")

	got = matchFilter("mail", "jdoe@example.test", false)
	assert.Equal(t, "(mail=jdoe@example.test)", got)
}

func TestBuildSearchFilterSubstringDefault(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{{Name: "username", Values: []string{"dude"}}},
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&(uid=*dude*)))", got)
}

func TestBuildSearchFilterExactSuffix(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{{Name: "username__exact", Values: []string{"dude"}}},
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&(uid=dude)))", got)
}

func TestBuildSearchFilterAlwaysExactTerms(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{{Name: "email", Values: []string{"jdoe@example.test"}}},
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&(mail=jdoe@example.test)))", got,
		"email matching is exact regardless of suffix")
}

func TestBuildSearchFilterMultipleValuesORGroup(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{{Name: "ircnick", Values: []string{"abc", "def"}}},
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&(|(fasIRCNick=*abc*)(fasIRCNick=*def*))))", got)
}

func TestBuildSearchFilterGroupTermResolvesDN(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{{Name: "group", Values: []string{"devs"}}},
	})
	assert.Equal(t,
		"(&"+UserModel.Filter+"(&(memberOf=cn=devs,cn=groups,cn=accounts,dc=example,dc=test)))",
		got)
}

func TestBuildSearchFilterDropsUnknownAndEmpty(t *testing.T) {
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		Terms: []Term{
			{Name: "shoesize", Values: []string{"42"}},
			{Name: "username", Values: []string{""}},
		},
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&))", got)
}

func TestBuildSearchFilterCreationBefore(t *testing.T) {
	before := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	got := buildSearchFilter(UserModel, testBaseDN, SearchCriteria{
		CreationBefore: &before,
	})
	assert.Equal(t, "(&"+UserModel.Filter+"(&(fasCreationTime<=20200601000000Z)))", got)
}
