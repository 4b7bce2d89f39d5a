package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
)

// Selectors locates the balance fields on a page.
type Selectors struct {
	ARS *string `json:"ars,omitempty"`
	USD *string `json:"usd,omitempty"`
}

// Value implements driver.Valuer for JSONB.
func (s Selectors) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB.
func (s *Selectors) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = Selectors{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported selectors type %T", value)
	}
}

// SiteConfig tells the client how to scrape one site.
// (UserID, Name, URLPattern) is the natural key.
type SiteConfig struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	URLPattern string    `json:"urlPattern"`
	Selectors  Selectors `json:"selectors"`
	Investment string    `json:"investment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SiteConfigInput is a client-supplied site configuration.
type SiteConfigInput struct {
	Name       string     `json:"name"`
	URLPattern string     `json:"urlPattern"`
	Selectors  *Selectors `json:"selectors"`
	Investment string     `json:"investment"`
}

func (in SiteConfigInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	case strings.TrimSpace(in.URLPattern) == "":
		return fmt.Errorf("%w: urlPattern is required", common.ErrValidation)
	case in.Selectors == nil:
		return fmt.Errorf("%w: selectors is required", common.ErrValidation)
	case strings.TrimSpace(in.Investment) == "":
		return fmt.Errorf("%w: investment is required", common.ErrValidation)
	}
	return nil
}

// ToSiteConfig builds a site config owned by userID.
func (in SiteConfigInput) ToSiteConfig(userID string) *SiteConfig {
	s := &SiteConfig{
		UserID:     userID,
		Name:       in.Name,
		URLPattern: in.URLPattern,
		Investment: in.Investment,
	}
	if in.Selectors != nil {
		s.Selectors = *in.Selectors
	}
	return s
}

// SiteConfigPatch updates fields of an existing site config. Null and absent
// are both "keep".
type SiteConfigPatch struct {
	Name       *string    `json:"name"`
	URLPattern *string    `json:"urlPattern"`
	Selectors  *Selectors `json:"selectors"`
	Investment *string    `json:"investment"`
}

func (p SiteConfigPatch) IsEmpty() bool {
	return p.Name == nil && p.URLPattern == nil && p.Selectors == nil && p.Investment == nil
}

// Apply writes the patch onto s.
func (p SiteConfigPatch) Apply(s *SiteConfig) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.URLPattern != nil {
		s.URLPattern = *p.URLPattern
	}
	if p.Selectors != nil {
		s.Selectors = *p.Selectors
	}
	if p.Investment != nil {
		s.Investment = *p.Investment
	}
}
