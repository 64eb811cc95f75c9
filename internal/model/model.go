// Package model defines the entity types held in the local store and the
// snapshot envelope exchanged with the remote content store.
//
// Every collection is an ordered slice of records keyed by ID (Path for
// virtual files). Records are replaced whole on update; there are no partial
// patch semantics anywhere in the system.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies the access level of a user profile.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AdSlot is a fixed named placement location for an ad unit.
type AdSlot string

const (
	SlotHeader        AdSlot = "header"
	SlotSidebar       AdSlot = "sidebar"
	SlotInFeed        AdSlot = "in-feed"
	SlotArticleBottom AdSlot = "article-bottom"
	SlotFooter        AdSlot = "footer"
)

// AdKind distinguishes image-URL ad payloads from script/HTML payloads.
type AdKind string

const (
	AdKindImage  AdKind = "image"
	AdKindScript AdKind = "script"
)

// Comment is an embedded reply on an article or video post.
type Comment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Article is a published news story.
type Article struct {
	// ===== Identification =====
	ID   string `json:"id"`
	Slug string `json:"slug"`

	// ===== Content =====
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Content  string `json:"content"` // markdown
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`

	// ===== Media =====
	Image   string   `json:"image,omitempty"`
	Gallery []string `json:"gallery,omitempty"`
	Video   string   `json:"video,omitempty"`

	// ===== Presentation flags =====
	Breaking bool `json:"breaking,omitempty"`
	Featured bool `json:"featured,omitempty"`

	// ===== Engagement =====
	Views    int       `json:"views"`
	Tags     []string  `json:"tags,omitempty"`
	Comments []Comment `json:"comments,omitempty"`

	PublishedAt time.Time `json:"published_at"`
}

// Validate checks the fields required for an article to be publishable.
func (a *Article) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	return nil
}

// VideoPost is a standalone video item with its own engagement counters.
type VideoPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	MediaURL    string    `json:"media_url"`
	ThumbURL    string    `json:"thumb_url,omitempty"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	LikedBy     []string  `json:"liked_by,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdConfig is one ad unit bound to a placement slot.
type AdConfig struct {
	ID      string `json:"id"`
	Slot    AdSlot `json:"slot"`
	Enabled bool   `json:"enabled"`
	Kind    AdKind `json:"kind"`
	Payload string `json:"payload"` // image URL or script/HTML markup

	// Platform-specific identifiers, present only for AdSense units.
	AdSenseClient string `json:"adsense_client,omitempty"`
	AdSenseSlot   string `json:"adsense_slot,omitempty"`
}

// Validate checks that the ad unit targets a known slot with a usable payload.
func (a *AdConfig) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	switch a.Slot {
	case SlotHeader, SlotSidebar, SlotInFeed, SlotArticleBottom, SlotFooter:
	default:
		return fmt.Errorf("unknown ad slot %q", a.Slot)
	}
	switch a.Kind {
	case AdKindImage, AdKindScript:
	default:
		return fmt.Errorf("unknown ad kind %q", a.Kind)
	}
	return nil
}

// UserProfile is an account record supplied by the external auth provider
// and persisted locally.
type UserProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
	Role        Role      `json:"role"`
	NotifyOptIn bool      `json:"notify_opt_in"`
}

// Validate requires at least one reachable contact field.
func (u *UserProfile) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("id is required")
	}
	if u.Email == "" && u.Phone == "" {
		return fmt.Errorf("either email or phone is required")
	}
	return nil
}

// Message is a contact-form submission.
type Message struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
	Read   bool      `json:"read"`
}

// TickerConfig is the singleton breaking-news ticker state. It is not an
// id-keyed collection: reconciliation overwrites it wholesale.
type TickerConfig struct {
	Enabled bool     `json:"enabled"`
	Items   []string `json:"items,omitempty"`
}

// VirtualFile is a small code/config asset keyed by path rather than id.
type VirtualFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// NewID mints a lexicographically sortable unique id for new records.
func NewID() string {
	return strings.ToLower(ulid.Make().String())
}

// Slugify derives a URL slug from an article title. Non-alphanumeric runs
// collapse to single hyphens; the result is lowercased and trimmed.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
