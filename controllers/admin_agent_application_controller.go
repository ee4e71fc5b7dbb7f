// controllers/admin_agent_application_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
	"github.com/dkamau/unimart_backend/websocket"
)

// AdminAgentApplicationController handles the admin review workflow for
// agent applications
type AdminAgentApplicationController struct {
	DB  *mongo.Client
	Hub *websocket.Hub
}

// NewAdminAgentApplicationController creates a new admin application controller
func NewAdminAgentApplicationController(db *mongo.Client, hub *websocket.Hub) *AdminAgentApplicationController {
	return &AdminAgentApplicationController{DB: db, Hub: hub}
}

// filterAll is the sentinel both dropdown filters send for "no filter".
const filterAll = "all"

// applicationListFilter builds the list query from the status, university
// and search params. The search term also matches the applicant's account
// email, which lives on the users collection, so callers resolve those user
// IDs first and pass them in.
func applicationListFilter(status, university, search string, matchedUsers []primitive.ObjectID) (bson.M, error) {
	filter := bson.M{}
	if status != "" && status != filterAll {
		if status != models.ApplicationStatusPending &&
			status != models.ApplicationStatusApproved &&
			status != models.ApplicationStatusRejected {
			return nil, fmt.Errorf("invalid status %q", status)
		}
		filter["status"] = status
	}
	if university != "" && university != filterAll {
		filter["universityName"] = university
	}
	if search != "" {
		pattern := utils.SearchPattern(search)
		or := []bson.M{
			{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
			{"universityEmail": bson.M{"$regex": pattern, "$options": "i"}},
			{"studentId": bson.M{"$regex": pattern, "$options": "i"}},
		}
		if len(matchedUsers) > 0 {
			or = append(or, bson.M{"userId": bson.M{"$in": matchedUsers}})
		}
		filter["$or"] = or
	}
	return filter, nil
}

// ListApplications returns a filtered, paginated application list together
// with aggregate counts and the set of universities seen across all
// applications.
func (ac *AdminAgentApplicationController) ListApplications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ac.DB, "agent_applications")

	search := c.QueryParam("search")
	var matchedUsers []primitive.ObjectID
	if search != "" {
		pattern := utils.SearchPattern(search)
		userCursor, err := config.GetCollection(ac.DB, "users").Find(ctx,
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}})
		if err == nil {
			var users []models.User
			if err := userCursor.All(ctx, &users); err == nil {
				for _, u := range users {
					matchedUsers = append(matchedUsers, u.ID)
				}
			}
		}
	}

	filter, err := applicationListFilter(c.QueryParam("status"), c.QueryParam("university"), search, matchedUsers)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status filter",
		})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 15
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("Failed to count applications: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve applications",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("Failed to find applications: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve applications",
		})
	}
	defer cursor.Close(ctx)

	var applications []models.AgentApplication
	if err := cursor.All(ctx, &applications); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode applications",
		})
	}

	// Join applicants in one query instead of one lookup per row.
	userIDs := make([]primitive.ObjectID, 0, len(applications))
	for _, app := range applications {
		userIDs = append(userIDs, app.UserID)
	}
	usersByID := map[primitive.ObjectID]models.PublicUser{}
	if len(userIDs) > 0 {
		userCursor, err := config.GetCollection(ac.DB, "users").Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
		if err == nil {
			var users []models.User
			if err := userCursor.All(ctx, &users); err == nil {
				for _, u := range users {
					usersByID[u.ID] = u.Public()
				}
			}
		}
	}

	items := make([]models.ApplicationListItem, 0, len(applications))
	for _, app := range applications {
		items = append(items, models.ApplicationListItem{
			Application: app,
			User:        usersByID[app.UserID],
		})
	}

	stats, err := ac.applicationStats(ctx, collection)
	if err != nil {
		log.Printf("Failed to aggregate application stats: %v", err)
	}

	universities := []string{}
	if raw, err := collection.Distinct(ctx, "universityName", bson.M{}); err == nil {
		universities = universityFacet(raw)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Applications retrieved successfully",
		Data: map[string]interface{}{
			"applications": items,
			"stats":        stats,
			"universities": universities,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// universityFacet turns the raw distinct result into a sorted name list for
// the filter dropdown.
func universityFacet(raw []interface{}) []string {
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (ac *AdminAgentApplicationController) applicationStats(ctx context.Context, collection *mongo.Collection) (models.ApplicationStats, error) {
	var stats models.ApplicationStats

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}

	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case models.ApplicationStatusPending:
			stats.Pending = row.Count
		case models.ApplicationStatusApproved:
			stats.Approved = row.Count
		case models.ApplicationStatusRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}

// GetApplication returns the full application with its applicant, reviewer
// and, for approved applications, the created agent record.
func (ac *AdminAgentApplicationController) GetApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application ID format",
		})
	}

	var application models.AgentApplication
	err = config.GetCollection(ac.DB, "agent_applications").FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Application not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve application",
		})
	}

	detail := models.ApplicationDetail{Application: application}

	var applicant models.User
	if err := config.GetCollection(ac.DB, "users").FindOne(ctx, bson.M{"_id": application.UserID}).Decode(&applicant); err == nil {
		detail.User = applicant.Public()
	}

	if application.ReviewedBy != nil {
		var reviewer models.User
		if err := config.GetCollection(ac.DB, "users").FindOne(ctx, bson.M{"_id": *application.ReviewedBy}).Decode(&reviewer); err == nil {
			pub := reviewer.Public()
			detail.Reviewer = &pub
		}
	}

	if application.IsApproved() {
		var agent models.Agent
		if err := config.GetCollection(ac.DB, "agents").FindOne(ctx, bson.M{"applicationId": application.ID}).Decode(&agent); err == nil {
			detail.Agent = &agent
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Application retrieved successfully",
		Data:    detail,
	})
}

// approvalUpdate is the update applied when a pending application is
// approved. Any rejection reason left over from a prior review is removed.
func approvalUpdate(adminID primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":     models.ApplicationStatusApproved,
			"reviewedAt": now,
			"reviewedBy": adminID,
			"updatedAt":  now,
		},
		"$unset": bson.M{"rejectionReason": ""},
	}
}

// ApproveApplication moves a pending application to approved, creates the
// agent record and promotes the applicant's role, all inside one transaction.
// The status filter on the update makes concurrent approvals race safely:
// only one reviewer's write matches the pending document.
func (ac *AdminAgentApplicationController) ApproveApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application ID format",
		})
	}

	var req models.ApproveApplicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Commission rate must be between 0 and 100",
		})
	}

	commissionRate := models.DefaultCommissionRate
	if req.CommissionRate != nil {
		commissionRate = *req.CommissionRate
	}

	applicationsColl := config.GetCollection(ac.DB, "agent_applications")

	var application models.AgentApplication
	err = applicationsColl.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Application not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve application",
		})
	}
	if !application.IsPending() {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Application has already been %s", application.Status),
		})
	}

	agentCode, err := utils.GenerateAgentCode()
	if err != nil {
		log.Printf("Failed to generate agent code: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to approve application",
		})
	}

	now := time.Now()
	agent := models.Agent{
		UserID:         application.UserID,
		ApplicationID:  application.ID,
		AgentCode:      agentCode,
		CommissionRate: commissionRate,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	session, err := ac.DB.StartSession()
	if err != nil {
		log.Printf("Failed to start session: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to approve application",
		})
	}
	defer session.EndSession(ctx)

	var lostRace bool
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		result, err := applicationsColl.UpdateOne(sc,
			bson.M{"_id": applicationID, "status": models.ApplicationStatusPending},
			approvalUpdate(adminID, now),
		)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			lostRace = true
			return nil, mongo.ErrNoDocuments
		}

		insertResult, err := config.GetCollection(ac.DB, "agents").InsertOne(sc, agent)
		if err != nil {
			return nil, err
		}
		agent.ID = insertResult.InsertedID.(primitive.ObjectID)

		_, err = config.GetCollection(ac.DB, "users").UpdateOne(sc,
			bson.M{"_id": application.UserID},
			bson.M{"$set": bson.M{"role": models.RoleAgent, "updatedAt": now}},
		)
		return nil, err
	})
	if err != nil {
		if lostRace {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Application has already been reviewed",
			})
		}
		log.Printf("Approval transaction failed for application %s: %v", applicationID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to approve application",
		})
	}

	application.Status = models.ApplicationStatusApproved
	application.ReviewedAt = &now
	application.ReviewedBy = &adminID
	application.RejectionReason = ""

	// Notifications are best-effort; the approval already committed.
	go utils.NotifyApplicationReviewed(ac.DB, &application, true, "")
	if ac.Hub != nil {
		ac.Hub.NotifyApplicationReviewed(application.UserID, map[string]interface{}{
			"application_id": application.ID.Hex(),
			"status":         application.Status,
			"agent_code":     agent.AgentCode,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Application approved successfully",
		Data: map[string]interface{}{
			"application": application,
			"agent":       agent,
		},
	})
}

// RejectApplication moves a pending application to rejected with a reason.
// Like approval, the pending filter serializes concurrent reviews.
func (ac *AdminAgentApplicationController) RejectApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application ID format",
		})
	}

	var req models.RejectApplicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, models.ValidationResponse{
			Status:  http.StatusUnprocessableEntity,
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"rejection_reason": {"The rejection reason must be between 10 and 1000 characters."}},
		})
	}

	applicationsColl := config.GetCollection(ac.DB, "agent_applications")

	now := time.Now()
	result, err := applicationsColl.UpdateOne(ctx,
		bson.M{"_id": applicationID, "status": models.ApplicationStatusPending},
		bson.M{"$set": bson.M{
			"status":          models.ApplicationStatusRejected,
			"rejectionReason": req.RejectionReason,
			"reviewedAt":      now,
			"reviewedBy":      adminID,
			"updatedAt":       now,
		}},
	)
	if err != nil {
		log.Printf("Failed to reject application %s: %v", applicationID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to reject application",
		})
	}
	if result.MatchedCount == 0 {
		var existing models.AgentApplication
		if err := applicationsColl.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&existing); err != nil {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Application not found",
			})
		}
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Application has already been %s", existing.Status),
		})
	}

	var application models.AgentApplication
	if err := applicationsColl.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application); err != nil {
		log.Printf("Failed to reload rejected application %s: %v", applicationID.Hex(), err)
	}

	go utils.NotifyApplicationReviewed(ac.DB, &application, false, req.RejectionReason)
	if ac.Hub != nil {
		ac.Hub.NotifyApplicationReviewed(application.UserID, map[string]interface{}{
			"application_id":   application.ID.Hex(),
			"status":           application.Status,
			"rejection_reason": application.RejectionReason,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Application rejected successfully",
		Data:    application,
	})
}

// DownloadDocument streams one of the two identity documents attached to an
// application. type is "id" or "student_id".
func (ac *AdminAgentApplicationController) DownloadDocument(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	applicationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application ID format",
		})
	}

	var application models.AgentApplication
	err = config.GetCollection(ac.DB, "agent_applications").FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Application not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve application",
		})
	}

	var relPath string
	switch c.Param("type") {
	case "id":
		relPath = application.IDDocumentPath
	case "student_id":
		relPath = application.StudentIDDocumentPath
	default:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid document type. Must be 'id' or 'student_id'",
		})
	}

	if !utils.UploadExists(relPath) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Document file not found",
		})
	}

	return c.Attachment(utils.UploadFullPath(relPath), fmt.Sprintf("%s_%s", c.Param("type"), application.FullName))
}
