// Package domain defines the persistence models for the bag-verification
// inventory: bags, their verification history, category configuration, and
// the per-category form content tables. These types are mapped with GORM and
// form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Traffic-light status values stored on a bag. Purple overrides the control
// date rules whenever a contained item is already expired.
const (
	StatusGreen  = "green"
	StatusOrange = "orange"
	StatusRed    = "red"
	StatusPurple = "purple"
)

// Operational states. An out-of-service bag keeps its stored status but is
// excluded from aggregate stats and from the alert sweep.
const (
	StateActive       = "Actif"
	StateOutOfService = "HS"
)

// Bag represents one inventory row: a physical kit (backpack, pouch, vehicle
// case) tracked under a unique name. The name is the sole lookup key used by
// every mutation; history entries and photo blobs reference it without a
// foreign key.
//
// Fields:
//   - Name: unique bag identifier (e.g. "VLI 1").
//   - Category: key into the categories table; determines verification
//     frequency and form template.
//   - LastControl / NextControl: verification window; NextControl is
//     LastControl plus the category frequency in days.
//   - Status: traffic-light classification (see Status* constants).
//   - LastVerifier: name of the person who performed the last check.
//   - NextItemName / NextItemExpiry: the soonest-expiring contained item.
//   - MailOrange / MailRed: alert recipient addresses per severity.
//   - State: Actif or HS (out of service).
//   - Location: free text (vehicle, station, shelf).
//   - DisplayOrder: per-category display rank; ties broken by row order.
type Bag struct {
	ID             uint       `json:"-"                gorm:"primaryKey"`
	Category       string     `json:"category"         gorm:"type:varchar(64);not null;index"`
	Name           string     `json:"name"             gorm:"type:varchar(128);not null;uniqueIndex:ux_bag_name"`
	LastControl    *time.Time `json:"last_control"`
	NextControl    *time.Time `json:"next_control"`
	Status         string     `json:"status"           gorm:"type:varchar(16);not null;default:'green'"`
	LastVerifier   string     `json:"last_verifier"    gorm:"type:varchar(128)"`
	NextItemName   string     `json:"next_item_name"   gorm:"type:varchar(255)"`
	NextItemExpiry *time.Time `json:"next_item_expiry"`
	MailOrange     string     `json:"mail_orange"      gorm:"type:varchar(255)"`
	MailRed        string     `json:"mail_red"         gorm:"type:varchar(255)"`
	State          string     `json:"state"            gorm:"type:varchar(16);not null;default:'Actif'"`
	Location       string     `json:"location"         gorm:"type:varchar(255)"`
	DisplayOrder   int        `json:"order"            gorm:"not null;default:0"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Bag.
func (Bag) TableName() string { return "bags" }

// HistoryEntry is one row of the append-only verification log. Entries
// reference bags by name: a bag rename propagates to history, a bag delete
// does not purge it (the log is an audit trail).
//
// Details carries the serialized form answers plus optional annotations
// (expired-item alert, elapsed verification time) as opaque text.
type HistoryEntry struct {
	ID        uint      `json:"-"        gorm:"primaryKey"`
	CreatedAt time.Time `json:"date"     gorm:"index"`
	BagName   string    `json:"name"     gorm:"type:varchar(128);not null;index"`
	Verifier  string    `json:"verifier" gorm:"type:varchar(128)"`
	Details   string    `json:"details"  gorm:"type:text"`
}

// TableName returns the database table name for HistoryEntry.
func (HistoryEntry) TableName() string { return "history" }

// Category maps a canonical category name to its verification frequency.
// Names are trimmed and upper-cased before being used as keys anywhere;
// duplicates are collapsed by the cleanup pass, keeping one row.
type Category struct {
	ID            uint      `json:"-"         gorm:"primaryKey"`
	Name          string    `json:"name"      gorm:"type:varchar(64);not null;uniqueIndex:ux_category_name"`
	FrequencyDays int       `json:"freq"      gorm:"not null;default:30"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// FormContentRow is one line of a per-category template table: a checklist
// item inside a section. The form loader groups rows into the nested
// section/item structure served to clients; regeneration is wholesale (the
// rows for a category are replaced on every template edit).
type FormContentRow struct {
	ID       uint   `json:"-"        gorm:"primaryKey"`
	Category string `json:"-"        gorm:"type:varchar(64);not null;index"`
	Section  string `json:"section"  gorm:"type:varchar(255);not null"`
	Item     string `json:"item"     gorm:"type:varchar(255)"`
	Type     string `json:"type"     gorm:"type:varchar(16)"`
	Default  string `json:"def"      gorm:"type:varchar(255)"`
	Position string `json:"position" gorm:"type:varchar(255)"`
}

// TableName returns the database table name for FormContentRow.
func (FormContentRow) TableName() string { return "form_content" }

// Property is one entry of the explicit key-value state store: serialized
// form-template map, global options, mail templates, photo presence map,
// photo event log, per-bag mileage records, and the durable bootstrap
// snapshot. Values are JSON documents.
type Property struct {
	Key       string         `gorm:"type:varchar(128);primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the database table name for Property.
func (Property) TableName() string { return "properties" }

// MileageRecord is the value stored under one per-bag mileage property key.
// One record per bag, last write wins.
type MileageRecord struct {
	Km         float64   `json:"km"`
	Date       string    `json:"date"`
	CapturedAt time.Time `json:"timestamp"`
}

// FormItem is a single checklist entry of a form template.
// Type is one of: case (checkbox), nombre (number), texte (text), date.
type FormItem struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"def"`
}

// FormSection groups ordered items under a named section with a physical
// position label (e.g. "Poche principale").
type FormSection struct {
	Section  string     `json:"section"`
	Position string     `json:"position"`
	Items    []FormItem `json:"items"`
}

// FormTemplates maps a canonical category name to its ordered sections.
// The whole map is persisted as a single JSON property and regenerated
// wholesale on any edit.
type FormTemplates map[string][]FormSection
