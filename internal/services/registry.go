package services

import (
	"github.com/usnaveen/TubeFocus-Backend/internal/audit"
	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/intent"
	"github.com/usnaveen/TubeFocus-Backend/internal/librarian"
	"github.com/usnaveen/TubeFocus-Backend/internal/scoring"
	"github.com/usnaveen/TubeFocus-Backend/internal/youtube"
)

// Registry provides access to all tubefocusd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Coach() coach.Service
	Scorer() scoring.Scorer
	Intent() intent.Classifier
	Auditor() audit.Auditor
	Librarian() *librarian.Librarian
	Videos() *youtube.Client
}

// Options configures the registry with service instances.
type Options struct {
	Coach     coach.Service
	Scorer    scoring.Scorer
	Intent    intent.Classifier
	Auditor   audit.Auditor
	Librarian *librarian.Librarian
	Videos    *youtube.Client
}

// registry is the concrete implementation of Registry.
type registry struct {
	coach     coach.Service
	scorer    scoring.Scorer
	intent    intent.Classifier
	auditor   audit.Auditor
	librarian *librarian.Librarian
	videos    *youtube.Client
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		coach:     opts.Coach,
		scorer:    opts.Scorer,
		intent:    opts.Intent,
		auditor:   opts.Auditor,
		librarian: opts.Librarian,
		videos:    opts.Videos,
	}
}

func (r *registry) Coach() coach.Service            { return r.coach }
func (r *registry) Scorer() scoring.Scorer          { return r.scorer }
func (r *registry) Intent() intent.Classifier       { return r.intent }
func (r *registry) Auditor() audit.Auditor          { return r.auditor }
func (r *registry) Librarian() *librarian.Librarian { return r.librarian }
func (r *registry) Videos() *youtube.Client         { return r.videos }
