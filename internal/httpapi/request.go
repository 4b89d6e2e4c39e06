package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

func init() {
	// Report request field names rather than Go field names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
}

type createDepartmentRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	ParentID *uint  `json:"parent_id" validate:"omitnil,gt=0"`
}

func (r *createDepartmentRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

type createEmployeeRequest struct {
	FullName string  `json:"full_name" validate:"required,max=200"`
	Position string  `json:"position" validate:"required,max=200"`
	HiredAt  *string `json:"hired_at" validate:"omitnil,datetime=2006-01-02"`
}

func (r *createEmployeeRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Position = strings.TrimSpace(r.Position)
	if r.HiredAt != nil {
		trimmed := strings.TrimSpace(*r.HiredAt)
		r.HiredAt = &trimmed
	}
}

type updateDepartmentRequest struct {
	Name     *string      `json:"name" validate:"omitnil,min=1,max=200"`
	ParentID optionalUint `json:"parent_id"`
}

func (r *updateDepartmentRequest) normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
}

type getDepartmentQuery struct {
	Depth            *int  `form:"depth" validate:"omitnil,min=0,max=5"`
	IncludeEmployees *bool `form:"include_employees"`
}

type deleteDepartmentQuery struct {
	Mode         string `form:"mode" validate:"required,oneof=cascade reassign"`
	ReassignToID *uint  `form:"reassign_to_department_id" validate:"omitnil,gt=0"`
}

func (q *deleteDepartmentQuery) normalize() {
	q.Mode = strings.ToLower(strings.TrimSpace(q.Mode))
}

type departmentURI struct {
	ID uint `uri:"id" validate:"gt=0"`
}

type normalizer interface {
	normalize()
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// bindAndValidate binds the JSON body and runs the validate tags. On failure
// the response is already written and the caller must return.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return normalizeAndValidate(c, req)
}

func bindQueryAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid query parameters")
		return false
	}
	return normalizeAndValidate(c, req)
}

func bindDepartmentID(c *gin.Context) (uint, bool) {
	var uri departmentURI
	if err := c.ShouldBindUri(&uri); err != nil || validate.Struct(uri) != nil {
		writeError(c, http.StatusBadRequest, "invalid department id")
		return 0, false
	}
	return uri.ID, true
}

func normalizeAndValidate(c *gin.Context, req any) bool {
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			writeError(c, http.StatusBadRequest, err.Error())
			return false
		}
		fields := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			fields[fe.Field()] = fe.Tag()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// optionalUint tells an absent field apart from an explicit null.
type optionalUint struct {
	Set   bool
	Value *uint
}

func (o *optionalUint) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}

	var value uint
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}
