package contracts

// EventType is a canonical event classification from the fixed taxonomy.
// Adapters map upstream-specific categories onto these values; unknown
// upstream categories are rejected at normalization, never stored raw.
type EventType string

const (
	// SEC filings.
	EventSEC8K  EventType = "sec_8k"
	EventSEC10K EventType = "sec_10k"
	EventSEC10Q EventType = "sec_10q"
	EventSECS1  EventType = "sec_s1"
	EventSEC13D EventType = "sec_13d"

	// FDA actions.
	EventFDAApproval  EventType = "fda_approval"
	EventFDARejection EventType = "fda_rejection"
	EventFDAClearance EventType = "fda_clearance"
	EventFDARecall    EventType = "fda_recall"

	// Press releases.
	EventProductLaunch   EventType = "product_launch"
	EventPartnership     EventType = "partnership"
	EventMergerAcq       EventType = "merger_acquisition"
	EventLawsuit         EventType = "lawsuit"
	EventExecutiveChange EventType = "executive_change"

	// Earnings calendar.
	EventEarnings      EventType = "earnings"
	EventGuidanceRaise EventType = "guidance_raise"
	EventGuidanceCut   EventType = "guidance_cut"
)

// EventTypes lists the full taxonomy in a stable order.
func EventTypes() []EventType {
	return []EventType{
		EventSEC8K, EventSEC10K, EventSEC10Q, EventSECS1, EventSEC13D,
		EventFDAApproval, EventFDARejection, EventFDAClearance, EventFDARecall,
		EventProductLaunch, EventPartnership, EventMergerAcq, EventLawsuit, EventExecutiveChange,
		EventEarnings, EventGuidanceRaise, EventGuidanceCut,
	}
}

// KnownEventType reports whether t belongs to the canonical taxonomy.
func KnownEventType(t EventType) bool {
	switch t {
	case EventSEC8K, EventSEC10K, EventSEC10Q, EventSECS1, EventSEC13D,
		EventFDAApproval, EventFDARejection, EventFDAClearance, EventFDARecall,
		EventProductLaunch, EventPartnership, EventMergerAcq, EventLawsuit, EventExecutiveChange,
		EventEarnings, EventGuidanceRaise, EventGuidanceCut:
		return true
	}
	return false
}
