package carestatus

import "time"

// FlagType classifies a DogFlag.
type FlagType string

// Known flag types.
const (
	FlagInHeat           FlagType = "in_heat"
	FlagPregnant         FlagType = "pregnant"
	FlagSpecialAttention FlagType = "special_attention"
	FlagIncompatible     FlagType = "incompatible"
	FlagOther            FlagType = "other"
)

// CareCategory identifies the kind of care a log entry records.
type CareCategory string

// Known care categories.
const (
	CategoryPottyBreak CareCategory = "potty_break"
	CategoryFeeding    CareCategory = "feeding"
	CategoryMedication CareCategory = "medication"
	CategoryGrooming   CareCategory = "grooming"
	CategoryTraining   CareCategory = "training"
	CategoryNote       CareCategory = "note"
)

// KnownCategories lists every valid CareCategory value.
var KnownCategories = []CareCategory{
	CategoryPottyBreak,
	CategoryFeeding,
	CategoryMedication,
	CategoryGrooming,
	CategoryTraining,
	CategoryNote,
}

// DogFlag is a care alert attached to a dog. Flags of type
// FlagIncompatible carry the ids of the dogs this dog must not share
// a run with.
type DogFlag struct {
	Type             FlagType `json:"type"`
	Value            string   `json:"value"`
	Description      string   `json:"description,omitempty"`
	IncompatibleWith []string `json:"incompatible_with,omitempty"`
}

// Dog is a roster record as served by the backing store. It seeds the
// skeleton snapshot before any care logs are merged in.
type Dog struct {
	ID              string                        `json:"id"`
	Name            string                        `json:"name"`
	PhotoURL        string                        `json:"photo_url,omitempty"`
	Breed           string                        `json:"breed,omitempty"`
	Flags           []DogFlag                     `json:"flags,omitempty"`
	AlertThresholds map[CareCategory]time.Duration `json:"alert_thresholds,omitempty"`
}

// CareLogEntry is the atomic unit coming from the backing store: one
// timestamped care event for one dog.
type CareLogEntry struct {
	ID        string       `json:"id"`
	DogID     string       `json:"dog_id"`
	Category  CareCategory `json:"category"`
	TaskName  string       `json:"task_name"`
	Timestamp time.Time    `json:"timestamp"`
	Notes     string       `json:"notes,omitempty"`
	CreatedBy string       `json:"created_by"`
}

// DogCareStatus aggregates one dog's roster record with the day's raw
// care logs and per-category last-care timestamps. Between fetches the
// optimistic coordinator mutates a view of it; the next successful
// fetch replaces it wholesale.
type DogCareStatus struct {
	DogID    string    `json:"dog_id"`
	DogName  string    `json:"dog_name"`
	PhotoURL string    `json:"photo_url,omitempty"`
	Breed    string    `json:"breed,omitempty"`
	Flags    []DogFlag `json:"flags,omitempty"`

	LastCare map[CareCategory]time.Time `json:"last_care,omitempty"`
	Logs     []CareLogEntry             `json:"logs,omitempty"`
}

// Observation is an ephemeral note derived from a care log entry. It is
// never stored; validity is recomputed from wall clock at query time.
type Observation struct {
	ID        string       `json:"id"`
	DogID     string       `json:"dog_id"`
	Text      string       `json:"text"`
	CreatedBy string       `json:"created_by"`
	Category  CareCategory `json:"category"`
	Timestamp time.Time    `json:"timestamp"`
	ExpiresAt time.Time    `json:"expires_at"`
	TimeSlot  string       `json:"time_slot"`
}

// Clone returns a deep copy of the status. The day cache copies in both
// directions so callers can never alias cached state.
func (s DogCareStatus) Clone() DogCareStatus {
	out := s
	if s.Flags != nil {
		out.Flags = make([]DogFlag, len(s.Flags))
		for i, f := range s.Flags {
			out.Flags[i] = f
			if f.IncompatibleWith != nil {
				out.Flags[i].IncompatibleWith = append([]string(nil), f.IncompatibleWith...)
			}
		}
	}
	if s.LastCare != nil {
		out.LastCare = make(map[CareCategory]time.Time, len(s.LastCare))
		for k, v := range s.LastCare {
			out.LastCare[k] = v
		}
	}
	if s.Logs != nil {
		out.Logs = append([]CareLogEntry(nil), s.Logs...)
	}
	return out
}

// CloneStatuses deep-copies a snapshot slice.
func CloneStatuses(in []DogCareStatus) []DogCareStatus {
	if in == nil {
		return nil
	}
	out := make([]DogCareStatus, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

// DateKey formats a time as the calendar-day cache key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
