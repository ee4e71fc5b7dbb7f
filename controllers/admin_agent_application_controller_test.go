package controllers

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dkamau/unimart_backend/models"
)

func TestApplicationListFilterStatus(t *testing.T) {
	filter, err := applicationListFilter(models.ApplicationStatusPending, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, filter["status"])

	_, err = applicationListFilter("bogus", "", "", nil)
	assert.Error(t, err)
}

func TestApplicationListFilterAllSentinel(t *testing.T) {
	filter, err := applicationListFilter("all", "all", "", nil)
	require.NoError(t, err)
	assert.Empty(t, filter)
}

func TestApplicationListFilterUniversity(t *testing.T) {
	filter, err := applicationListFilter("", "Kenyatta University", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Kenyatta University", filter["universityName"])
}

func TestApplicationListFilterSearchFields(t *testing.T) {
	filter, err := applicationListFilter("", "", "wanjiku", nil)
	require.NoError(t, err)

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 3)

	fields := make([]string, 0, len(or))
	for _, clause := range or {
		for field, cond := range clause {
			fields = append(fields, field)
			assert.Equal(t, "wanjiku", cond.(bson.M)["$regex"])
		}
	}
	assert.ElementsMatch(t, []string{"fullName", "universityEmail", "studentId"}, fields)
}

func TestApplicationListFilterSearchIncludesMatchedUsers(t *testing.T) {
	// The account email lives on the users collection; IDs matched there
	// must be folded into the $or so the search covers login emails too.
	userID := primitive.NewObjectID()

	filter, err := applicationListFilter("", "", "student@uni.ac.ke", []primitive.ObjectID{userID})
	require.NoError(t, err)

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 4)

	in, ok := or[3]["userId"].(bson.M)["$in"].([]primitive.ObjectID)
	require.True(t, ok)
	assert.Equal(t, []primitive.ObjectID{userID}, in)
}

func TestApprovalUpdateClearsRejectionReason(t *testing.T) {
	adminID := primitive.NewObjectID()
	now := time.Now()

	update := approvalUpdate(adminID, now)

	set := update["$set"].(bson.M)
	assert.Equal(t, models.ApplicationStatusApproved, set["status"])
	assert.Equal(t, adminID, set["reviewedBy"])
	assert.Equal(t, now, set["reviewedAt"])

	unset, ok := update["$unset"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, unset, "rejectionReason")
}

func TestUniversityFacetSorted(t *testing.T) {
	raw := []interface{}{"Strathmore", "Egerton", "Kenyatta University", 42, "Egerton"}

	assert.Equal(t, []string{"Egerton", "Egerton", "Kenyatta University", "Strathmore"}, universityFacet(raw))
}

func TestApplicationListFilterSearchQuotesMetacharacters(t *testing.T) {
	filter, err := applicationListFilter("", "", "a(b", nil)
	require.NoError(t, err)

	or := filter["$or"].([]bson.M)
	pattern := or[0]["fullName"].(bson.M)["$regex"].(string)

	re, compileErr := regexp.Compile(pattern)
	require.NoError(t, compileErr)
	assert.True(t, re.MatchString("a(b"))
	assert.False(t, re.MatchString("ab"))
}
