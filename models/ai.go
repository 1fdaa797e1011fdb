package models

// IntentAppointmentBooking is the entity intent type that forces the
// navigation engine into the appointment flow.
const IntentAppointmentBooking = "appointment_booking"

// ExtractedEntities is the optional structured hint the AI appends to a
// free-text answer. All fields are best-effort; absence means "no hint".
type ExtractedEntities struct {
	IntentType     string   `json:"intent_type,omitempty"`     // e.g. "appointment_booking", "medication_query"
	DatePreference string   `json:"date_preference,omitempty"` // e.g. "today", "tomorrow", "next monday"
	TimePreference string   `json:"time_preference,omitempty"` // e.g. "morning", "afternoon", "evening"
	MedicationName string   `json:"medication_name,omitempty"`
	SymptomList    []string `json:"symptom_list,omitempty"`
}

// AIReply is the parsed result of one AI round-trip: the natural-language
// answer with any trailing entity block stripped out.
type AIReply struct {
	TextResponse string             `json:"textResponse"`
	Entities     *ExtractedEntities `json:"entities,omitempty"`
}
