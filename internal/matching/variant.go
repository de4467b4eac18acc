package matching

// Variant describes one of the three ride flavors the engine serves.
// The coordinator itself is variant-agnostic; the descriptor tells it
// which eligibility rules apply and the store bound to the coordinator
// decides which tables are touched.
type Variant struct {
    // Kind names the variant ("eventride", "ride", "specialride").
    // It appears in published queue events and log lines.
    Kind string

    // EventScoped marks the event-ride variant: offers are tied to an
    // event from the external catalog, one offer per driver per event,
    // and riders must hold an InterestedParty registration for the same
    // event before requesting a seat.  Non-scoped variants allow one
    // active offer per driver overall and have no interest prerequisite.
    EventScoped bool
}

// The three variants served by the engine.
var (
    EventRides   = Variant{Kind: "eventride", EventScoped: true}
    GenericRides = Variant{Kind: "ride"}
    SpecialRides = Variant{Kind: "specialride"}
)
