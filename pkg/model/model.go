// Package model defines the persisted entities and JSON-shaped value types
// of the research core: ResearchProperty, Job, EvidenceItem, CompSale,
// CompRental, Underwriting, RiskScore, Dossier, and WorkerRun.
package model

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Strategy is the investment strategy driving underwriting math.
type Strategy string

const (
	StrategyFlip      Strategy = "flip"
	StrategyRental    Strategy = "rental"
	StrategyWholesale Strategy = "wholesale"
)

// ExecutionMode selects between the fixed pipeline and the dependency graph.
type ExecutionMode string

const (
	ModePipeline     ExecutionMode = "pipeline"
	ModeOrchestrated ExecutionMode = "orchestrated"
)

// RehabTier drives the per-sqft rehab cost assumption.
type RehabTier string

const (
	RehabLight  RehabTier = "light"
	RehabMedium RehabTier = "medium"
	RehabHeavy  RehabTier = "heavy"
)

// WorkerStatus is the outcome of a single worker execution.
type WorkerStatus string

const (
	WorkerSuccess WorkerStatus = "success"
	WorkerPartial WorkerStatus = "partial"
	WorkerFailed  WorkerStatus = "failed"
)

// CompOrigin distinguishes internally sourced comps from externally scraped
// ones.
type CompOrigin string

const (
	OriginInternal CompOrigin = "internal"
	OriginExternal CompOrigin = "external"
)

// Limits bounds a Job's execution.
type Limits struct {
	MaxSteps              int           `json:"max_steps"`
	MaxWebCalls           int           `json:"max_web_calls"`
	TimeoutSecondsPerStep int           `json:"timeout_seconds_per_step"`
	MaxParallelAgents     int           `json:"max_parallel_agents"`
	ExecutionMode         ExecutionMode `json:"execution_mode"`
}

// DefaultLimits returns the default limits for a Job.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps:              9,
		MaxWebCalls:           30,
		TimeoutSecondsPerStep: 20,
		MaxParallelAgents:     1,
		ExecutionMode:         ModePipeline,
	}
}

// ParcelFacts is the physical description of a parcel.
type ParcelFacts struct {
	Sqft      *int     `json:"sqft,omitempty"`
	Lot       *int     `json:"lot,omitempty"`
	Beds      *int     `json:"beds,omitempty"`
	Baths     *float64 `json:"baths,omitempty"`
	YearBuilt *int     `json:"year,omitempty"`
}

// TransactionEvent is one row of a property's transaction history.
type TransactionEvent struct {
	Date      string  `json:"date"`
	Event     string  `json:"event"`
	Amount    float64 `json:"amount"`
	SourceURL string  `json:"source_url"`
}

// EnrichmentStatus reports whether a property has fresh CRM enrichment.
type EnrichmentStatus struct {
	MaxAgeHours *int     `json:"max_age_hours"`
	IsEnriched  bool     `json:"is_enriched"`
	IsFresh     *bool    `json:"is_fresh"`
	AgeHours    *float64 `json:"age_hours,omitempty"`
	Missing     []string `json:"missing"`
}

// PropertyProfile is the opaque structured snapshot populated by the
// geocode worker and persisted on ResearchProperty.LatestProfile.
type PropertyProfile struct {
	NormalizedAddress  string             `json:"normalized_address"`
	GeoLat             *float64           `json:"geo_lat,omitempty"`
	GeoLng             *float64           `json:"geo_lng,omitempty"`
	APN                string             `json:"apn,omitempty"`
	ParcelFacts        ParcelFacts        `json:"parcel_facts"`
	Zoning             string             `json:"zoning,omitempty"`
	OwnerNames         []string           `json:"owner_names,omitempty"`
	MailingAddress     string             `json:"mailing_address,omitempty"`
	AssessedValues     map[string]float64 `json:"assessed_values,omitempty"`
	TaxStatus          string             `json:"tax_status,omitempty"`
	Zestimate          *float64           `json:"zestimate,omitempty"`
	RentZestimate      *float64           `json:"rent_zestimate,omitempty"`
	TransactionHistory []TransactionEvent `json:"transaction_history,omitempty"`
	EnrichmentStatus   EnrichmentStatus   `json:"enrichment_status"`
}

// ResearchProperty is the canonical identity of a researched parcel.
type ResearchProperty struct {
	ID                string          `db:"id" json:"id"`
	StableKey         string          `db:"stable_key" json:"stable_key"`
	RawAddress        string          `db:"raw_address" json:"raw_address"`
	NormalizedAddress string          `db:"normalized_address" json:"normalized_address"`
	City              string          `db:"city" json:"city"`
	State             string          `db:"state" json:"state"`
	ZipCode           string          `db:"zip_code" json:"zip_code"`
	APN               string          `db:"apn" json:"apn"`
	GeoLat            *float64        `db:"geo_lat" json:"geo_lat,omitempty"`
	GeoLng            *float64        `db:"geo_lng" json:"geo_lng,omitempty"`
	LatestProfile     json.RawMessage `db:"latest_profile" json:"latest_profile,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Job is one execution of the pipeline against a ResearchProperty.
type Job struct {
	ID                 string          `db:"id" json:"id"`
	TraceID            string          `db:"trace_id" json:"trace_id"`
	ResearchPropertyID string          `db:"research_property_id" json:"research_property_id"`
	Status             JobStatus       `db:"status" json:"status"`
	Progress           int             `db:"progress" json:"progress"`
	CurrentStep        string          `db:"current_step" json:"current_step"`
	Strategy           Strategy        `db:"strategy" json:"strategy"`
	Assumptions        json.RawMessage `db:"assumptions" json:"assumptions"`
	Limits             Limits          `db:"-" json:"limits"`
	LimitsRaw          json.RawMessage `db:"limits" json:"-"`
	Results            json.RawMessage `db:"results" json:"results,omitempty"`
	ErrorMessage       *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	StartedAt          *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// EvidenceItem is an atomic provenance record, unique by Hash.
type EvidenceItem struct {
	ID                 int64     `db:"id" json:"id"`
	JobID              string    `db:"job_id" json:"job_id"`
	ResearchPropertyID string    `db:"research_property_id" json:"property_id"`
	Category           string    `db:"category" json:"category"`
	Claim              string    `db:"claim" json:"claim"`
	SourceURL          string    `db:"source_url" json:"source_url"`
	CapturedAt         time.Time `db:"captured_at" json:"captured_at"`
	RawExcerpt         *string   `db:"raw_excerpt" json:"raw_excerpt,omitempty"`
	Confidence         float64   `db:"confidence" json:"confidence"`
	Hash               string    `db:"hash" json:"hash"`
}

// EvidenceDraft is a worker-emitted evidence candidate prior to hash-based
// upsert into the store.
type EvidenceDraft struct {
	Category   string
	Claim      string
	SourceURL  string
	RawExcerpt string
	Confidence float64
}

// CompDetails carries the provenance metadata common to both comp kinds.
type CompDetails struct {
	Origin         CompOrigin `json:"origin"`
	SourceQuality  float64    `json:"source_quality"`
	EffectiveScore float64    `json:"effective_score"`
}

// CompSale is a ranked comparable sale selected for a Job.
type CompSale struct {
	ID              int64       `db:"id" json:"-"`
	JobID           string      `db:"job_id" json:"-"`
	Address         string      `db:"address" json:"address"`
	DistanceMi      float64     `db:"distance_mi" json:"distance_mi"`
	SaleDate        *time.Time  `db:"sale_date" json:"sale_date,omitempty"`
	SalePrice       float64     `db:"sale_price" json:"sale_price"`
	Sqft            *int        `db:"sqft" json:"sqft,omitempty"`
	Beds            *int        `db:"beds" json:"beds,omitempty"`
	Baths           *float64    `db:"baths" json:"baths,omitempty"`
	YearBuilt       *int        `db:"year_built" json:"year_built,omitempty"`
	SimilarityScore float64     `db:"similarity_score" json:"similarity_score"`
	SourceURL       string      `db:"source_url" json:"source_url"`
	Details         CompDetails `db:"details" json:"details"`
}

// CompRental is a ranked comparable rental selected for a Job.
type CompRental struct {
	ID              int64       `db:"id" json:"-"`
	JobID           string      `db:"job_id" json:"-"`
	Address         string      `db:"address" json:"address"`
	DistanceMi      float64     `db:"distance_mi" json:"distance_mi"`
	DateListed      *time.Time  `db:"date_listed" json:"date_listed,omitempty"`
	Rent            float64     `db:"rent" json:"rent"`
	Sqft            *int        `db:"sqft" json:"sqft,omitempty"`
	Beds            *int        `db:"beds" json:"beds,omitempty"`
	Baths           *float64    `db:"baths" json:"baths,omitempty"`
	SimilarityScore float64     `db:"similarity_score" json:"similarity_score"`
	SourceURL       string      `db:"source_url" json:"source_url"`
	Details         CompDetails `db:"details" json:"details"`
}

// Range3 is a tri-point low/base/high estimate.
type Range3 struct {
	Low  *float64 `json:"low"`
	Base *float64 `json:"base"`
	High *float64 `json:"high"`
}

// Range2 is a low/high estimate (rehab has no "base" midpoint distinct from
// the derived value).
type Range2 struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

// Fees is the fee map applied to underwriting math.
type Fees struct {
	Closing       float64 `json:"closing"`
	Holding       float64 `json:"holding"`
	AssignmentFee float64 `json:"assignment_fee"`
	Misc          float64 `json:"misc"`
	Total         float64 `json:"total"`
}

// SensitivityRow is one scenario row of the fixed sensitivity table.
type SensitivityRow struct {
	Scenario        string   `json:"scenario"`
	Multiplier      float64  `json:"multiplier"`
	OfferAdjustment float64  `json:"offer_adjustment"`
	ARVBase         *float64 `json:"arv_base"`
	OfferBase       *float64 `json:"offer_base"`
}

// Underwriting is the per-Job valuation record.
type Underwriting struct {
	ID           int64            `db:"id" json:"-"`
	JobID        string           `db:"job_id" json:"-"`
	ARVEstimate  Range3           `db:"-" json:"arv_estimate"`
	RentEstimate Range3           `db:"-" json:"rent_estimate"`
	RehabTier    RehabTier        `db:"rehab_tier" json:"rehab_tier"`
	RehabRange   Range2           `db:"-" json:"rehab_estimated_range"`
	OfferPrice   Range3           `db:"-" json:"offer_price_recommendation"`
	Fees         Fees             `db:"-" json:"fees"`
	Sensitivity  []SensitivityRow `db:"-" json:"sensitivity_table"`
}

// RiskScore is the per-Job risk synthesis record.
type RiskScore struct {
	ID              int64    `db:"id" json:"-"`
	JobID           string   `db:"job_id" json:"-"`
	TitleRisk       float64  `db:"title_risk" json:"title_risk"`
	DataConfidence  float64  `db:"data_confidence" json:"data_confidence"`
	ComplianceFlags []string `db:"compliance_flags" json:"compliance_flags"`
	Notes           string   `db:"notes" json:"notes"`
}

// Citation references an EvidenceItem backing a dossier claim.
type Citation struct {
	EvidenceID int64  `json:"evidence_id"`
	SourceURL  string `json:"source_url"`
}

// Dossier is the per-Job narrative investment memo.
type Dossier struct {
	ID        int64      `db:"id" json:"-"`
	JobID     string     `db:"job_id" json:"-"`
	Markdown  string     `db:"markdown" json:"markdown"`
	Citations []Citation `db:"citations" json:"citations"`
}

// WorkerRun is per-Job, per-Worker execution telemetry.
type WorkerRun struct {
	ID         int64           `db:"id" json:"-"`
	JobID      string          `db:"job_id" json:"-"`
	WorkerName string          `db:"worker_name" json:"worker_name"`
	Status     WorkerStatus    `db:"status" json:"status"`
	RuntimeMs  int64           `db:"runtime_ms" json:"runtime_ms"`
	CostUSD    float64         `db:"cost_usd" json:"cost_usd"`
	WebCalls   int             `db:"web_calls" json:"web_calls"`
	Data       json.RawMessage `db:"data" json:"-"`
	Unknowns   []Unknown       `db:"unknowns" json:"unknowns"`
	Errors     []string        `db:"errors" json:"errors"`
}

// Unknown flags a gap in a worker's output worth surfacing to the caller.
type Unknown struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// PortalCache is the row shape of the portal_cache table. The cache in use
// lives in Redis (pkg/adapters/portalcache); no code in this repository
// reads or writes this table.
type PortalCache struct {
	URLHash   string    `db:"url_hash" json:"url_hash"`
	URL       string    `db:"url" json:"url"`
	HTML      string    `db:"html" json:"html"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// CRMProperty is a read-only internal CRM property record the core matches
// researched addresses against for parcel facts and comp candidates.
type CRMProperty struct {
	ID         int64      `db:"id"`
	Address    string     `db:"address"`
	City       string     `db:"city"`
	State      string     `db:"state"`
	ZipCode    string     `db:"zip_code"`
	SquareFeet *int       `db:"square_feet"`
	LotSize    *int       `db:"lot_size"`
	Bedrooms   *int       `db:"bedrooms"`
	Bathrooms  *float64   `db:"bathrooms"`
	YearBuilt  *int       `db:"year_built"`
	Price      *float64   `db:"price"`
	Status     string     `db:"status"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at"`
}

// SkipTrace is the latest owner/mailing-address lookup for a CRMProperty.
type SkipTrace struct {
	ID             int64     `db:"id"`
	PropertyID     int64     `db:"property_id"`
	OwnerName      string    `db:"owner_name"`
	MailingAddress string    `db:"mailing_address"`
	MailingCity    string    `db:"mailing_city"`
	MailingState   string    `db:"mailing_state"`
	MailingZip     string    `db:"mailing_zip"`
	CreatedAt      time.Time `db:"created_at"`
}

// PriceHistoryItem is one row of a ZillowEnrichment's price history.
type PriceHistoryItem struct {
	Date  string  `json:"date"`
	Event string  `json:"event"`
	Price float64 `json:"price"`
}

// ZillowEnrichment is the latest Zillow-sourced valuation/tax snapshot for a
// CRMProperty.
type ZillowEnrichment struct {
	ID               int64              `db:"id"`
	PropertyID       int64              `db:"property_id"`
	AnnualTaxAmount  *float64           `db:"annual_tax_amount"`
	Zestimate        *float64           `db:"zestimate"`
	RentZestimate    *float64           `db:"rent_zestimate"`
	PriceHistoryJSON []byte             `db:"price_history"`
	PriceHistory     []PriceHistoryItem `db:"-"`
	ZillowURL        string             `db:"zillow_url"`
	UpdatedAt        *time.Time         `db:"updated_at"`
}
