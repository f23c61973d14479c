package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"sharefit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type registerRequest struct {
	Username          string `json:"username" validate:"required,min=3,max=30"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	ProfilePictureURL string `json:"profile_picture_url" validate:"omitempty,url"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

type totpVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type itemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Link     string `json:"link" validate:"required,url"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type createOutfitRequest struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	Items       []itemRequest `json:"items" validate:"max=30,dive"`
	Pictures    []string      `json:"pictures" validate:"max=10,dive,url"`
	Tags        []string      `json:"tags" validate:"max=10,dive,required,max=64"`
}

func (r createOutfitRequest) items() []models.Item {
	items := make([]models.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, models.Item{Name: it.Name, Link: it.Link, ImageURL: it.ImageURL})
	}
	return items
}

type votesRequest struct {
	IDs []uint `json:"ids" validate:"max=100"`
}

type rateRequest struct {
	Value *int `json:"value" validate:"required,oneof=-1 0 1"`
}

type createCommentRequest struct {
	Text     string  `json:"text" validate:"required"`
	ParentID *string `json:"parent_id" validate:"omitempty,max=64"`
}

// updateProfileRequest distinguishes an absent field (nil) from an empty
// profile picture, which clears the avatar.
type updateProfileRequest struct {
	Username          *string `json:"username" validate:"omitempty,min=3,max=30"`
	ProfilePictureURL *string `json:"profile_picture_url" validate:"omitempty,url|len=0"`
}

// bindJSON parses and validates the body into dst. On failure it writes a 400
// response and returns errResponseWritten.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationErrorWithDetails("Validation failed", fieldMessages(verrs)))
			return errResponseWritten
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		return errResponseWritten
	}
	return nil
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = fieldMessage(fe)
	}
	return details
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "url", "url|len=0":
		return "must be a valid URL"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
