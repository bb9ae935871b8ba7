package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/rentals/api/internal/errors"
	"github.com/stwalsh4118/rentals/api/internal/filters"
	"github.com/stwalsh4118/rentals/api/internal/middleware"
	"github.com/stwalsh4118/rentals/api/internal/models"
	"github.com/stwalsh4118/rentals/api/internal/services"
)

// photosField is the multipart field carrying listing images.
const photosField = "photos"

// PropertyHandler handles listing HTTP requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// CreatePropertyForm is the text part of a POST /properties multipart body.
// Booleans are compared against "true" instead of being parsed, so any other
// value reads as false.
type CreatePropertyForm struct {
	Name              string  `form:"name" binding:"required"`
	Description       string  `form:"description"`
	PropertyType      string  `form:"propertyType" binding:"required"`
	Amenities         string  `form:"amenities"`
	Highlights        string  `form:"highlights"`
	IsPetsAllowed     string  `form:"isPetsAllowed"`
	IsParkingIncluded string  `form:"isParkingIncluded"`
	Address           string  `form:"address" binding:"required"`
	City              string  `form:"city" binding:"required"`
	State             string  `form:"state" binding:"required"`
	Country           string  `form:"country" binding:"required"`
	PostalCode        string  `form:"postalCode" binding:"required"`
	PricePerMonth     float64 `form:"pricePerMonth" binding:"gte=0"`
	SecurityDeposit   float64 `form:"securityDeposit" binding:"gte=0"`
	ApplicationFee    float64 `form:"applicationFee" binding:"gte=0"`
	Baths             float64 `form:"baths" binding:"gte=0"`
	Beds              int     `form:"beds" binding:"gte=0"`
	SquareFeet        int     `form:"squareFeet" binding:"gte=0"`
}

// ListProperties handles GET /properties.
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	f, err := filters.Parse(c.Request.URL.Query())
	if err != nil {
		var paramErr *filters.ParamError
		if errors.As(err, &paramErr) {
			apierrors.BadRequest(c, "Invalid query parameter", map[string]interface{}{
				"param":  paramErr.Param,
				"value":  paramErr.Value,
				"reason": paramErr.Reason,
			})
			return
		}
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	properties, err := h.service.ListProperties(c.Request.Context(), f)
	if err != nil {
		apierrors.InternalServerError(c, "Error retrieving properties", err)
		return
	}

	c.JSON(http.StatusOK, properties)
}

// GetProperty handles GET /properties/:id.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, err := services.ParsePropertyID(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid property ID", map[string]interface{}{
			"id": c.Param("id"),
		})
		return
	}

	property, err := h.service.GetProperty(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			apierrors.NotFound(c, "Property not found")
			return
		}
		apierrors.InternalServerError(c, "Error retrieving property", err)
		return
	}

	c.JSON(http.StatusOK, property)
}

// CreateProperty handles POST /properties. The listing belongs to the
// authenticated manager.
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var form CreatePropertyForm
	if err := c.ShouldBind(&form); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid form data", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	property, err := form.property()
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}
	property.ManagerCognitoID = middleware.GetUserID(c)

	photos, err := formPhotos(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid photo upload", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Creating property", map[string]interface{}{
			"manager": property.ManagerCognitoID,
			"photos":  len(photos),
		})
	}

	created, err := h.service.CreateProperty(c.Request.Context(), services.CreatePropertyInput{
		Property: property,
		Location: models.Location{
			Address:    form.Address,
			City:       form.City,
			State:      form.State,
			Country:    form.Country,
			PostalCode: form.PostalCode,
		},
		Photos: photos,
	})
	if err != nil {
		apierrors.InternalServerError(c, "Error creating property", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (f CreatePropertyForm) property() (models.Property, error) {
	propertyType, err := models.ParsePropertyType(f.PropertyType)
	if err != nil {
		return models.Property{}, err
	}
	amenities, err := models.ParseAmenities(f.Amenities)
	if err != nil {
		return models.Property{}, err
	}
	highlights, err := models.ParseHighlights(f.Highlights)
	if err != nil {
		return models.Property{}, err
	}

	return models.Property{
		Name:              f.Name,
		Description:       f.Description,
		PropertyType:      propertyType,
		Amenities:         amenities,
		Highlights:        highlights,
		IsPetsAllowed:     f.IsPetsAllowed == "true",
		IsParkingIncluded: f.IsParkingIncluded == "true",
		PricePerMonth:     f.PricePerMonth,
		SecurityDeposit:   f.SecurityDeposit,
		ApplicationFee:    f.ApplicationFee,
		Baths:             f.Baths,
		Beds:              f.Beds,
		SquareFeet:        f.SquareFeet,
	}, nil
}

// formPhotos collects the uploaded files. A non-multipart body has no photos.
func formPhotos(c *gin.Context) ([]services.Photo, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	files := form.File[photosField]
	photos := make([]services.Photo, 0, len(files))
	for _, fh := range files {
		photos = append(photos, services.Photo{
			Open:        openPart(fh),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	return photos, nil
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}
