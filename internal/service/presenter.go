package service

import (
	"strings"
	"time"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/domain"
)

// ListingView is the response shape of a listing. Pointer fields are
// disclosed by tier and disappear from JSON when nil.
type ListingView struct {
	ID              string          `json:"id"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Year            int             `json:"year"`
	Image           *string         `json:"image"`
	Price           float64         `json:"price"`
	Currency        domain.Currency `json:"currency"`
	ConvertedPrices domain.Prices   `json:"convertedPrices"`
	Region          string          `json:"region"`
	City            string          `json:"city"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"createdAt"`

	Status     *domain.ListingStatus `json:"status,omitempty"`
	EditCount  *int                  `json:"editCount,omitempty"`
	IsDeleted  *bool                 `json:"isDeleted,omitempty"`
	Owner      *domain.OwnerCard     `json:"owner,omitempty"`
	Statistics *Statistics           `json:"statistics,omitempty"`
}

type Presenter struct {
	mediaBase string
}

func NewPresenter(mediaBaseURL string) *Presenter {
	return &Presenter{mediaBase: strings.TrimRight(mediaBaseURL, "/")}
}

// StatsAllowed reports whether viewer may see the statistics block.
func StatsAllowed(viewer access.Principal) bool {
	return viewer.IsPremium() || viewer.Has(access.StatsSeePremium)
}

func (p *Presenter) imageURL(key string) *string {
	if key == "" {
		return nil
	}
	u := p.mediaBase + "/" + strings.TrimLeft(key, "/")
	return &u
}

// Present projects h for viewer. stats is attached only when the viewer
// qualifies for it.
func (p *Presenter) Present(viewer access.Principal, h *domain.HydratedListing, stats *Statistics) ListingView {
	v := ListingView{
		ID:              h.ID,
		Brand:           h.Brand,
		Model:           h.Model,
		Year:            h.Year,
		Image:           p.imageURL(h.Image),
		Price:           h.Price,
		Currency:        h.Currency,
		ConvertedPrices: h.ConvertedPrices,
		Region:          h.Region,
		City:            h.City,
		Description:     h.Description,
		CreatedAt:       h.CreatedAt,
	}

	status, editCount := h.Status, h.EditCount
	switch {
	case viewer.Has(access.CarsSeeDetailsAll):
		deleted, owner := h.IsDeleted, h.Owner
		v.Status, v.EditCount, v.IsDeleted, v.Owner = &status, &editCount, &deleted, &owner
	case !viewer.Anonymous() && viewer.UserID == h.OwnerID:
		v.Status, v.EditCount = &status, &editCount
	}

	if stats != nil && StatsAllowed(viewer) {
		v.Statistics = stats
	}
	return v
}

func (p *Presenter) Page(viewer access.Principal, items []domain.HydratedListing, total int64, page, size int) Page[ListingView] {
	out := make([]ListingView, 0, len(items))
	for i := range items {
		out = append(out, p.Present(viewer, &items[i], nil))
	}
	return NewPage(out, total, page, size)
}
