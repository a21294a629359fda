package db

import (
	"time"

	"gorm.io/datatypes"
)

// Silo maps content.silos.
type Silo struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug      string    `gorm:"column:slug;type:text;not null;unique"`
	Name      string    `gorm:"column:name;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Silo) TableName() string { return "content.silos" }

// Post maps content.posts. The body is stored either as rendered HTML or as
// editor JSON; ContentJSON wins when both are present.
type Post struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	SiloID      *string        `gorm:"column:silo_id;type:uuid;index"`
	Title       string         `gorm:"column:title;type:text;not null"`
	Slug        string         `gorm:"column:slug;type:text;not null"`
	Keyword     *string        `gorm:"column:keyword;type:text"`
	ContentHTML *string        `gorm:"column:content_html;type:text"`
	ContentJSON datatypes.JSON `gorm:"column:content_json;type:jsonb"`
	Language    *string        `gorm:"column:language;type:text"`
	Status      string         `gorm:"column:status;type:text;not null;default:draft"`
	PublishedAt *time.Time     `gorm:"column:published_at;type:timestamptz"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Post) TableName() string { return "content.posts" }

// LinkOccurrence maps content.link_occurrences.
type LinkOccurrence struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SourceDocID    string    `gorm:"column:source_doc_id;type:uuid;not null;index" json:"source_doc_id"`
	TargetDocID    *string   `gorm:"column:target_doc_id;type:uuid;index" json:"target_doc_id"`
	OccurrenceKey  *string   `gorm:"column:occurrence_key;type:text" json:"occurrence_key"`
	Href           string    `gorm:"column:href;type:text;not null" json:"href"`
	AnchorText     string    `gorm:"column:anchor_text;type:text;not null;default:''" json:"anchor_text"`
	Context        *string   `gorm:"column:context;type:text" json:"context"`
	LinkType       string    `gorm:"column:link_type;type:text;not null" json:"link_type"`
	IsInternal     bool      `gorm:"column:is_internal;type:boolean;not null;default:false" json:"is_internal"`
	IsSiloInternal bool      `gorm:"column:is_silo_internal;type:boolean;not null;default:false" json:"is_silo_internal"`
	IsAmazon       bool      `gorm:"column:is_amazon;type:boolean;not null;default:false" json:"is_amazon"`
	RelNoFollow    bool      `gorm:"column:rel_nofollow;type:boolean;not null;default:false" json:"rel_nofollow"`
	RelSponsored   bool      `gorm:"column:rel_sponsored;type:boolean;not null;default:false" json:"rel_sponsored"`
	RelUGC         bool      `gorm:"column:rel_ugc;type:boolean;not null;default:false" json:"rel_ugc"`
	TargetBlank    bool      `gorm:"column:target_blank;type:boolean;not null;default:false" json:"target_blank"`
	PositionBucket *string   `gorm:"column:position_bucket;type:text" json:"position_bucket"`
	TextOffset     *int      `gorm:"column:text_offset;type:integer" json:"text_offset"`
	NodeKind       *string   `gorm:"column:node_kind;type:text" json:"node_kind"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()" json:"updated_at"`
}

func (LinkOccurrence) TableName() string { return "content.link_occurrences" }

// UniquenessReport maps content.uniqueness_reports, one row per analysis run.
type UniquenessReport struct {
	ID              string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PostID          string         `gorm:"column:post_id;type:uuid;not null;index:uniqueness_reports_post_idx,priority:1" json:"post_id"`
	Kind            string         `gorm:"column:kind;type:text;not null" json:"kind"`
	UniquenessScore int            `gorm:"column:uniqueness_score;type:integer;not null" json:"uniqueness_score"`
	Risk            string         `gorm:"column:risk;type:text;not null" json:"risk"`
	CheckedChunks   int            `gorm:"column:checked_chunks;type:integer;not null;default:0" json:"checked_chunks"`
	SuspectChunks   int            `gorm:"column:suspect_chunks;type:integer;not null;default:0" json:"suspect_chunks"`
	HighRiskChunks  int            `gorm:"column:high_risk_chunks;type:integer;not null;default:0" json:"high_risk_chunks"`
	ComparedCount   int            `gorm:"column:compared_count;type:integer;not null;default:0" json:"compared_count"`
	Partial         bool           `gorm:"column:partial;type:boolean;not null;default:false" json:"partial"`
	Summary         string         `gorm:"column:summary;type:text;not null;default:''" json:"summary"`
	Matches         datatypes.JSON `gorm:"column:matches;type:jsonb;not null" json:"matches"`
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamptz;not null;default:now();index:uniqueness_reports_post_idx,priority:2,sort:desc" json:"created_at"`
}

func (UniquenessReport) TableName() string { return "content.uniqueness_reports" }

func autoMigrateModels() []any {
	return []any{
		&Silo{},
		&Post{},
		&LinkOccurrence{},
		&UniquenessReport{},
	}
}
