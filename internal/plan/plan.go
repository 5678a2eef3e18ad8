// Package plan maps subscription tiers to resource caps.
package plan

import (
	"errors"
	"fmt"
)

type Tier string

const (
	Free Tier = "free"
	Pro  Tier = "pro"
)

type Resource string

const (
	Testimonials Resource = "testimonials"
	Projects     Resource = "projects"
)

// Default Free tier caps.
const (
	DefaultFreeTestimonials = 10
	DefaultFreeProjects     = 1
)

var ErrLimitReached = errors.New("plan limit reached")

// Limit is a resource cap. The zero value is Unlimited.
type Limit struct {
	max     int64
	bounded bool
}

// Unlimited never reports at-limit.
var Unlimited = Limit{}

// Max returns a finite cap of n.
func Max(n int64) Limit {
	return Limit{max: n, bounded: true}
}

func (l Limit) Unbounded() bool { return !l.bounded }

func (l Limit) String() string {
	if !l.bounded {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.max)
}

// MarshalJSON encodes an unbounded limit as null.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.bounded {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", l.max)), nil
}

// ParseTier maps a stored plan tag to a Tier. Unknown tags fall back to Free.
func ParseTier(s string) Tier {
	if Tier(s) == Pro {
		return Pro
	}
	return Free
}

func IsPro(t Tier) bool {
	return t == Pro
}

// IsAtLimit reports current >= limit. Unlimited is never at limit.
func IsAtLimit(current int64, limit Limit) bool {
	if !limit.bounded {
		return false
	}
	return current >= limit.max
}

// Policy holds the configurable Free tier caps.
type Policy struct {
	FreeTestimonials int64
	FreeProjects     int64
}

// DefaultPolicy uses DefaultFreeTestimonials and DefaultFreeProjects.
func DefaultPolicy() Policy {
	return Policy{
		FreeTestimonials: DefaultFreeTestimonials,
		FreeProjects:     DefaultFreeProjects,
	}
}

// NewPolicy builds a Policy; non-positive caps fall back to the defaults.
func NewPolicy(freeProjects, freeTestimonials int) Policy {
	p := DefaultPolicy()
	if freeProjects > 0 {
		p.FreeProjects = int64(freeProjects)
	}
	if freeTestimonials > 0 {
		p.FreeTestimonials = int64(freeTestimonials)
	}
	return p
}

func (p Policy) LimitFor(r Resource, t Tier) Limit {
	if IsPro(t) {
		return Unlimited
	}
	switch r {
	case Testimonials:
		return Max(p.FreeTestimonials)
	case Projects:
		return Max(p.FreeProjects)
	}
	return Unlimited
}

// Check returns ErrLimitReached when current usage of r is at the tier's cap.
func (p Policy) Check(r Resource, t Tier, current int64) error {
	limit := p.LimitFor(r, t)
	if IsAtLimit(current, limit) {
		return fmt.Errorf("%w: %s limit of %s on the %s plan", ErrLimitReached, r, limit, t)
	}
	return nil
}

// LimitFor applies the default policy.
func LimitFor(r Resource, t Tier) Limit {
	return DefaultPolicy().LimitFor(r, t)
}
