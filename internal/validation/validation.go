package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"kambios/internal/errors"
	"kambios/internal/plan"
	"kambios/internal/renamer"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 1000
	maxBodyBytes        = 8 << 20
)

type Validator interface {
	Validate() error
}

// PlanRequest asks for a preview of one strategy over a directory.
type PlanRequest struct {
	Dir string `json:"dir"`
	renamer.Request
}

func (r *PlanRequest) Validate() error {
	if err := checkDir(&r.Dir); err != nil {
		return err
	}
	if !r.Strategy.Valid() {
		return errors.InvalidParameter(fmt.Sprintf("unknown strategy %q", r.Strategy), map[string]string{"field": "strategy"})
	}
	return nil
}

// ApplyRequest carries a plan previously returned by the plan endpoint.
type ApplyRequest struct {
	Dir  string    `json:"dir"`
	Plan plan.Plan `json:"plan"`
}

func (r *ApplyRequest) Validate() error {
	if err := checkDir(&r.Dir); err != nil {
		return err
	}
	return plan.CheckNames(r.Plan)
}

type UndoRequest struct {
	Dir string `json:"dir"`
}

func (r *UndoRequest) Validate() error {
	return checkDir(&r.Dir)
}

// Decode reads a JSON body into v and validates it.
func Decode(r *http.Request, v Validator) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidParameter("invalid request body", map[string]string{"reason": err.Error()})
	}
	return v.Validate()
}

func DecodePlanRequest(r *http.Request) (*PlanRequest, error) {
	var req PlanRequest
	if err := Decode(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func DecodeApplyRequest(r *http.Request) (*ApplyRequest, error) {
	var req ApplyRequest
	if err := Decode(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func DecodeUndoRequest(r *http.Request) (*UndoRequest, error) {
	var req UndoRequest
	if err := Decode(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DirParam reads the required dir query parameter.
func DirParam(r *http.Request) (string, error) {
	dir := r.URL.Query().Get("dir")
	if err := checkDir(&dir); err != nil {
		return "", err
	}
	return dir, nil
}

// LimitParam reads the optional limit query parameter.
func LimitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxHistoryLimit {
		return 0, errors.InvalidParameter(
			fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit),
			map[string]string{"field": "limit", "value": raw})
	}
	return limit, nil
}

func checkDir(dir *string) error {
	if *dir == "" {
		return errors.InvalidParameter("dir is required", map[string]string{"field": "dir"})
	}
	*dir = filepath.Clean(*dir)
	return nil
}
