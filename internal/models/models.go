package models

import (
	"encoding/json"
	"time"
)

// MediaKind is the type of an attachment
type MediaKind string

const (
	MediaImage MediaKind = "IMAGE"
	MediaVideo MediaKind = "VIDEO"
)

// MediaRef represents an uploaded attachment of a shop, review or event
// swagger:model MediaRef
type MediaRef struct {
	// Media ID
	ID int64 `json:"id"`
	// Path relative to the upload base
	URL string `json:"url"`
	// IMAGE or VIDEO
	Kind MediaKind `json:"type"`
}

// Owner is the public view of a shop owner
// swagger:model Owner
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Shop represents a ramen shop
// swagger:model Shop
type Shop struct {
	// Shop ID
	ID int64 `json:"id"`
	// Shop name
	Name string `json:"name"`
	// Street address
	Address string `json:"address"`
	// Contact phone
	Phone string `json:"phone,omitempty"`
	// Free-form opening hours
	OpeningHours string `json:"openingHours,omitempty"`
	// Shop description
	Description string `json:"description,omitempty"`
	// Map coordinates
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Aggregate rating of top-level reviews
	AverageRating float64 `json:"averageRating"`
	// Number of top-level reviews
	ReviewCount int `json:"reviewCount"`
	// Shop owner
	Owner *Owner `json:"owner,omitempty"`
	// Attachments
	Media []MediaRef `json:"media"`
}

// Comment represents a review or a reply to a review
// swagger:model Comment
type Comment struct {
	// Review ID
	ID int64 `json:"id"`
	// Author user ID
	AuthorID int64 `json:"userId"`
	// Author username
	AuthorName string `json:"username"`
	// Review text
	Content string `json:"content"`
	// Rating between 0 and 5 in half steps, top-level reviews only
	Rating *float64 `json:"rating,omitempty"`
	// Creation timestamp
	CreatedAt time.Time `json:"createdAt"`
	// Last update timestamp
	UpdatedAt time.Time `json:"updatedAt"`
	// Parent review ID, set for replies
	ParentID *int64 `json:"parentReviewId,omitempty"`
	// Number of replies, always 0 for replies
	ReplyCount int `json:"replyCount"`
	// Attachments
	Media []MediaRef `json:"media"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool { return c.ParentID != nil }

// Normalize enforces the single nesting level: replies never carry replies.
func (c *Comment) Normalize() {
	if c.IsReply() {
		c.ReplyCount = 0
	}
	if c.ReplyCount < 0 {
		c.ReplyCount = 0
	}
	if c.Media == nil {
		c.Media = []MediaRef{}
	}
}

// Event represents a shop event or announcement
// swagger:model Event
type Event struct {
	// Event ID
	ID int64 `json:"id"`
	// Owning shop
	ShopID   int64  `json:"shopId"`
	ShopName string `json:"shopName,omitempty"`
	// Event title
	Title string `json:"title"`
	// Event body, markdown
	Content string `json:"content"`
	// Schedule
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	// ANNOUNCEMENT, PROMOTION, ...
	EventType string `json:"eventType"`
	// ACTIVE, UPCOMING, EXPIRED, HIDDEN, DRAFT
	Status string `json:"status"`
	// Set by an admin when hiding the event
	AdminNotes string `json:"adminNotes,omitempty"`
	// Attachments
	Media []MediaRef `json:"media"`
	// Creation timestamp
	CreatedAt time.Time `json:"createdAt"`
}

// Activity is one entry of the recent activity feed
// swagger:model Activity
type Activity struct {
	// EVENT or REVIEW
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	ShopID    int64     `json:"shopId"`
	ShopName  string    `json:"shopName"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the admin view of an account
// swagger:model User
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Enabled  bool   `json:"enabled"`
}

// ListPage is one page of a remote list
type ListPage[T any] struct {
	Items      []T `json:"items"`
	PageIndex  int `json:"pageIndex"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the wrapper every API response uses
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// RawPage is the list payload inside an Envelope
type RawPage[T any] struct {
	Content       []T   `json:"content"`
	PageNo        int   `json:"pageNo"`
	PageSize      int   `json:"pageSize"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}

// ReviewInput carries the scalar fields of a review or reply
type ReviewInput struct {
	Content        string   `json:"content"`
	Rating         *float64 `json:"rating,omitempty"`
	ParentReviewID *int64   `json:"parentReviewId,omitempty"`
}

// EventInput carries the scalar fields of an event
type EventInput struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	EventType string     `json:"eventType"`
}

// ShopInput carries the scalar fields of a shop
type ShopInput struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone,omitempty"`
	OpeningHours string  `json:"openingHours,omitempty"`
	Description  string  `json:"description,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
}

// Credentials are sent to the login endpoint
type Credentials struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// SignupInput registers a diner account
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ShopSignupInput registers a shop owner together with the shop
type ShopSignupInput struct {
	SignupInput
	Shop ShopInput `json:"shop"`
}

// LoginResult is returned by the login endpoint
type LoginResult struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}
