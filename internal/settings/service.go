package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Service interface {
	Get(ctx context.Context) (StoreSettings, error)
	Update(ctx context.Context, in StoreSettings) (StoreSettings, error)
}

type service struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmm.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return &service{db: db, validate: v}, nil
}

// Get returns the stored document, or the defaults when none was saved yet.
func (s *service) Get(ctx context.Context) (StoreSettings, error) {
	var row models.StoreSetting
	err := s.db.WithContext(ctx).Where("id = ?", models.StoreSettingsID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return StoreSettings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	out := Defaults()
	if err := json.Unmarshal(row.Data, &out); err != nil {
		return StoreSettings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode settings")
	}
	return out, nil
}

// Update validates and replaces the whole document.
func (s *service) Update(ctx context.Context, in StoreSettings) (StoreSettings, error) {
	in.StoreName = strings.TrimSpace(in.StoreName)
	if err := s.check(in); err != nil {
		return StoreSettings{}, err
	}
	data, err := json.Marshal(in)
	if err != nil {
		return StoreSettings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
	}
	row := models.StoreSetting{ID: models.StoreSettingsID, Data: data}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return StoreSettings{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save settings")
	}
	return in, nil
}

func (s *service) check(in StoreSettings) error {
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fe.Namespace()] = fe.Tag()
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid settings").WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settings")
	}
	for _, day := range in.OpeningHours.days() {
		if day.IsOpen && day.Open >= day.Close {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "opening time %s must be before closing time %s", day.Open, day.Close)
		}
	}
	return nil
}
