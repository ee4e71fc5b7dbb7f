// controllers/agent_application_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
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

// AgentApplicationController handles agent application submission and status
type AgentApplicationController struct {
	DB  *mongo.Client
	Hub *websocket.Hub
}

// NewAgentApplicationController creates a new agent application controller
func NewAgentApplicationController(db *mongo.Client, hub *websocket.Hub) *AgentApplicationController {
	return &AgentApplicationController{DB: db, Hub: hub}
}

// GetStatus returns the caller's most recent application, if any. Users with
// no application get has_application=false rather than a 404 so the client
// can render the apply form.
func (ac *AgentApplicationController) GetStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	collection := config.GetCollection(ac.DB, "agent_applications")

	var application models.AgentApplication
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err = collection.FindOne(ctx, bson.M{"userId": userID}, opts).Decode(&application)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "No application found",
				Data:    models.ApplicationStatusData{HasApplication: false},
			})
		}
		log.Printf("Failed to fetch application for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve application status",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Application status retrieved successfully",
		Data: models.ApplicationStatusData{
			HasApplication: true,
			Application: &models.ApplicationStatusSummary{
				ID:              application.ID,
				Status:          application.Status,
				RejectionReason: application.RejectionReason,
				CreatedAt:       application.CreatedAt,
				ReviewedAt:      application.ReviewedAt,
			},
		},
	})
}

// Submit accepts a multipart application form, validates it, stores the two
// identity documents and creates a pending application. A user may not hold
// a pending or approved application while submitting; a rejected application
// does not block reapplying.
func (ac *AgentApplicationController) Submit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	form := &utils.ApplicationForm{
		FullName:        utils.SanitizeInput(c.FormValue("full_name")),
		DateOfBirth:     c.FormValue("date_of_birth"),
		PhoneNumber:     utils.SanitizeInput(c.FormValue("phone_number")),
		PhysicalAddress: utils.SanitizeInput(c.FormValue("physical_address")),
		IDType:          c.FormValue("id_type"),
		IDNumber:        utils.SanitizeInput(c.FormValue("id_number")),
		UniversityName:  utils.SanitizeInput(c.FormValue("university_name")),
		Campus:          utils.SanitizeInput(c.FormValue("campus")),
		StudentID:       utils.SanitizeInput(c.FormValue("student_id")),
		Course:          utils.SanitizeInput(c.FormValue("course")),
		YearOfStudy:     c.FormValue("year_of_study"),
		UniversityEmail: c.FormValue("university_email"),
		TermsAccepted:   c.FormValue("terms_accepted"),
	}

	if file, err := c.FormFile("id_document"); err == nil {
		form.IDDocument = file
	}
	if file, err := c.FormFile("student_id_document"); err == nil {
		form.StudentIDDocument = file
	}

	if errs := utils.ValidateApplicationForm(form); len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, models.ValidationResponse{
			Status:  http.StatusUnprocessableEntity,
			Message: "The given data was invalid.",
			Errors:  errs,
		})
	}

	collection := config.GetCollection(ac.DB, "agent_applications")

	// Block a second live application before writing anything to disk.
	count, err := collection.CountDocuments(ctx, bson.M{
		"userId": userID,
		"status": bson.M{"$in": []string{models.ApplicationStatusPending, models.ApplicationStatusApproved}},
	})
	if err != nil {
		log.Printf("Failed to check existing applications for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process application",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "You already have an active application",
		})
	}

	universityEmail, err := utils.SanitizeEmail(form.UniversityEmail)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, models.ValidationResponse{
			Status:  http.StatusUnprocessableEntity,
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"university_email": {"The university email must be a valid email address."}},
		})
	}

	idDocPath, err := utils.StoreUpload(form.IDDocument, utils.IDDocumentDir)
	if err != nil {
		log.Printf("Failed to store ID document for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store ID document",
		})
	}

	studentDocPath, err := utils.StoreUpload(form.StudentIDDocument, utils.StudentIDDocumentDir)
	if err != nil {
		utils.DeleteUpload(idDocPath)
		log.Printf("Failed to store student ID document for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to store student ID document",
		})
	}

	now := time.Now()
	application := models.AgentApplication{
		UserID:                userID,
		FullName:              form.FullName,
		DateOfBirth:           form.DateOfBirth,
		PhoneNumber:           form.PhoneNumber,
		PhysicalAddress:       form.PhysicalAddress,
		IDType:                form.IDType,
		IDNumber:              form.IDNumber,
		IDDocumentPath:        idDocPath,
		UniversityName:        form.UniversityName,
		Campus:                form.Campus,
		StudentID:             form.StudentID,
		Course:                form.Course,
		YearOfStudy:           form.YearOfStudy,
		UniversityEmail:       universityEmail,
		StudentIDDocumentPath: studentDocPath,
		Status:                models.ApplicationStatusPending,
		TermsAccepted:         true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	result, err := collection.InsertOne(ctx, application)
	if err != nil {
		// Keep disk and database consistent when the insert fails.
		utils.DeleteUpload(idDocPath)
		utils.DeleteUpload(studentDocPath)
		log.Printf("Failed to insert application for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to submit application",
		})
	}
	application.ID = result.InsertedID.(primitive.ObjectID)

	if ac.Hub != nil {
		ac.Hub.NotifyApplicationSubmitted(map[string]interface{}{
			"application_id":  application.ID.Hex(),
			"full_name":       application.FullName,
			"university_name": application.UniversityName,
			"submitted_at":    application.CreatedAt,
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Application submitted successfully. We will review it shortly.",
		Data: models.ApplicationStatusSummary{
			ID:        application.ID,
			Status:    application.Status,
			CreatedAt: application.CreatedAt,
		},
	})
}
