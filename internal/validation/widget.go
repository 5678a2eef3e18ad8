package validation

import (
	"strings"

	"github.com/koe-app/koe/internal/models"
)

// DefaultWidgetConfig is the display configuration of a widget created
// without one.
func DefaultWidgetConfig() models.WidgetConfig { return models.DefaultWidgetConfig() }

// DefaultFormConfig is the collection form of a new project.
func DefaultFormConfig() models.FormConfig { return models.DefaultFormConfig() }

// WidgetConfigInput is a partial display configuration. Nil fields keep
// the value they are applied onto.
type WidgetConfigInput struct {
	Theme        *string `json:"theme"`
	ShowRating   *bool   `json:"show_rating"`
	ShowDate     *bool   `json:"show_date"`
	ShowAvatar   *bool   `json:"show_avatar"`
	MaxItems     *int    `json:"max_items"`
	Columns      *int    `json:"columns"`
	BorderRadius *int    `json:"border_radius"`
	Shadow       *bool   `json:"shadow"`
	FontFamily   *string `json:"font_family"`
}

func (p WidgetConfigInput) IsEmpty() bool {
	return p.Theme == nil && p.ShowRating == nil && p.ShowDate == nil && p.ShowAvatar == nil &&
		p.MaxItems == nil && p.Columns == nil && p.BorderRadius == nil && p.Shadow == nil &&
		p.FontFamily == nil
}

// Apply overlays the present fields onto base.
func (p WidgetConfigInput) Apply(base models.WidgetConfig) models.WidgetConfig {
	if p.Theme != nil {
		base.Theme = *p.Theme
	}
	if p.ShowRating != nil {
		base.ShowRating = *p.ShowRating
	}
	if p.ShowDate != nil {
		base.ShowDate = *p.ShowDate
	}
	if p.ShowAvatar != nil {
		base.ShowAvatar = *p.ShowAvatar
	}
	if p.MaxItems != nil {
		base.MaxItems = *p.MaxItems
	}
	if p.Columns != nil {
		base.Columns = *p.Columns
	}
	if p.BorderRadius != nil {
		base.BorderRadius = *p.BorderRadius
	}
	if p.Shadow != nil {
		base.Shadow = *p.Shadow
	}
	if p.FontFamily != nil {
		base.FontFamily = *p.FontFamily
	}
	return base
}

func (p *WidgetConfigInput) checkInto(errs *Errors) {
	trimPtr(p.Theme)
	trimPtr(p.FontFamily)

	if p.Theme != nil {
		errs.check("config.theme", *p.Theme, "oneof=light dark")
	}
	if p.MaxItems != nil {
		errs.check("config.max_items", *p.MaxItems, "min=1,max=100")
	}
	if p.Columns != nil {
		errs.check("config.columns", *p.Columns, "min=1,max=4")
	}
	if p.BorderRadius != nil {
		errs.check("config.border_radius", *p.BorderRadius, "min=0,max=24")
	}
	if p.FontFamily != nil {
		errs.check("config.font_family", *p.FontFamily, "required,max=100,fontfamily")
	}
}

var widgetTypes = "oneof=" + strings.Join([]string{
	string(models.WidgetWall), string(models.WidgetCarousel), string(models.WidgetList),
}, " ")

type WidgetCreateInput struct {
	ProjectID string
	Type      models.WidgetType
	Config    models.WidgetConfig
}

// WidgetCreate validates a new widget. Config fields that are not given
// take their defaults.
func WidgetCreate(raw []byte) (WidgetCreateInput, error) {
	var in struct {
		ProjectID *string            `json:"project_id"`
		Type      *string            `json:"type"`
		Config    *WidgetConfigInput `json:"config"`
	}
	if err := decode(raw, &in); err != nil {
		return WidgetCreateInput{}, err
	}
	trimPtr(in.ProjectID)
	trimPtr(in.Type)

	errs := &Errors{}
	var projectID, typ string
	if in.ProjectID != nil {
		projectID = *in.ProjectID
	}
	if in.Type != nil {
		typ = *in.Type
	}
	errs.check("project_id", projectID, "required,uuid")
	errs.check("type", typ, "required,"+widgetTypes)

	cfg := DefaultWidgetConfig()
	if in.Config != nil {
		in.Config.checkInto(errs)
		cfg = in.Config.Apply(cfg)
	}

	if err := errs.Err(); err != nil {
		return WidgetCreateInput{}, err
	}
	return WidgetCreateInput{
		ProjectID: projectID,
		Type:      models.WidgetType(typ),
		Config:    cfg,
	}, nil
}

type WidgetUpdateInput struct {
	Type   *models.WidgetType
	Config *WidgetConfigInput
}

// WidgetUpdate validates a partial widget update. An empty object, or one
// whose only field is an empty config, fails with ErrEmptyUpdate.
func WidgetUpdate(raw []byte) (WidgetUpdateInput, error) {
	var in struct {
		Type   *string            `json:"type"`
		Config *WidgetConfigInput `json:"config"`
	}
	if err := decode(raw, &in); err != nil {
		return WidgetUpdateInput{}, err
	}
	if in.Config != nil && in.Config.IsEmpty() {
		in.Config = nil
	}
	if in.Type == nil && in.Config == nil {
		return WidgetUpdateInput{}, ErrEmptyUpdate
	}

	errs := &Errors{}
	var out WidgetUpdateInput
	if in.Type != nil {
		trimPtr(in.Type)
		errs.check("type", *in.Type, "required,"+widgetTypes)
		t := models.WidgetType(*in.Type)
		out.Type = &t
	}
	if in.Config != nil {
		in.Config.checkInto(errs)
		out.Config = in.Config
	}

	if err := errs.Err(); err != nil {
		return WidgetUpdateInput{}, err
	}
	return out, nil
}
