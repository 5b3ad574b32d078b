package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"booking-calendar-sync/internal/domain/entity"
)

// Every event this service writes ends with a machine block of lines
// starting with markerPrefix, e.g.
//
//	[booking-sync] kind=flight slot=outbound-1
//	[booking-sync] id=887525617#outbound-1
//	[booking-sync] id=0709#outbound-1
//
// The identifiers are plain substrings of the description so a calendar
// text search for either one finds the event.
const (
	markerPrefix = "[booking-sync]"

	kindFlight   = "flight"
	kindCarShare = "carshare"

	// SourceTag marks events owned by this service in private properties
	SourceTag = "booking-calendar-sync"

	propSource        = "source"
	propSourceEmailID = "source_email_id"
	propKind          = "kind"
)

// flight description labels
const (
	labelAirline    = "Airline"
	labelFlight     = "Flight"
	labelRoute      = "Route"
	labelPassenger  = "Passenger"
	labelConfirm    = "Confirmation"
	labelReference  = "Booking Reference"
	labelSeat       = "Seat"
	labelAircraft   = "Aircraft"
	labelCheckin    = "Check-in"
	labelTotalPrice = "Total"
)

var unassignedSeats = map[string]bool{
	"未指定": true, "-": true, "n/a": true, "none": true, "tbd": true, "unassigned": true,
}

// eventMarker is the parsed machine block of an event
type eventMarker struct {
	Kind     string
	Slot     string
	Provider string
	Station  string
	Status   entity.BookingStatus
	Received time.Time
	IDs      []string
}

func (m eventMarker) hasID(id string) bool {
	for _, v := range m.IDs {
		if v == id {
			return true
		}
	}
	return false
}

func parseMarker(description string) eventMarker {
	var m eventMarker
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, markerPrefix) {
			continue
		}
		for _, tok := range strings.Fields(strings.TrimPrefix(line, markerPrefix)) {
			k, v, ok := strings.Cut(tok, "=")
			if !ok {
				continue
			}
			switch k {
			case "kind":
				m.Kind = v
			case "slot":
				m.Slot = v
			case "provider":
				m.Provider = v
			case "station":
				m.Station = v
			case "status":
				m.Status = entity.BookingStatus(v)
			case "received":
				if t, err := time.Parse(time.RFC3339, v); err == nil {
					m.Received = t
				}
			case "id":
				m.IDs = append(m.IDs, v)
			}
		}
	}
	return m
}

func markerLine(pairs ...string) string {
	var b strings.Builder
	b.WriteString(markerPrefix)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(pairs[i])
		b.WriteString("=")
		b.WriteString(pairs[i+1])
	}
	return b.String()
}

// flightEventData is the mergeable content of one flight segment event
type flightEventData struct {
	Slot             string
	Airline          string
	FlightNumber     string
	DepartureCode    string
	ArrivalCode      string
	DepartureName    string
	Passenger        string
	ConfirmationCode string
	BookingReference string
	Seat             string
	Aircraft         string
	CheckinURL       string
	TotalPrice       string
	Start            time.Time
	End              time.Time
	SourceEmailID    string
}

func flightDataFromBooking(b *entity.FlightBooking, ss entity.SlottedSegment) flightEventData {
	s := ss.Segment
	return flightEventData{
		Slot:             ss.Slot.String(),
		Airline:          strings.TrimSpace(s.Airline),
		FlightNumber:     normalizeIdentifier(s.FlightNumber),
		DepartureCode:    strings.ToUpper(s.Departure.Code),
		ArrivalCode:      strings.ToUpper(s.Arrival.Code),
		DepartureName:    s.Departure.DisplayName(),
		Passenger:        strings.TrimSpace(b.PassengerName),
		ConfirmationCode: normalizeIdentifier(b.ConfirmationCode),
		BookingReference: normalizeIdentifier(b.BookingReference),
		Seat:             normalizeSeat(s.SeatNumber),
		Aircraft:         strings.TrimSpace(s.AircraftType),
		CheckinURL:       strings.TrimSpace(b.CheckinURL),
		TotalPrice:       strings.TrimSpace(b.TotalPrice),
		Start:            s.DepartureTime,
		End:              s.ArrivalTime,
		SourceEmailID:    b.SourceEmailID,
	}
}

func normalizeSeat(seat string) string {
	seat = strings.TrimSpace(seat)
	if unassignedSeats[strings.ToLower(seat)] {
		return ""
	}
	return seat
}

// flightDataFromEvent recovers what an earlier email wrote
func flightDataFromEvent(ev entity.CalendarEventRef) flightEventData {
	labels := parseLabels(ev.Description)
	m := parseMarker(ev.Description)

	d := flightEventData{
		Slot:             m.Slot,
		Airline:          labels[labelAirline],
		FlightNumber:     labels[labelFlight],
		Passenger:        labels[labelPassenger],
		ConfirmationCode: labels[labelConfirm],
		BookingReference: labels[labelReference],
		Seat:             normalizeSeat(labels[labelSeat]),
		Aircraft:         labels[labelAircraft],
		CheckinURL:       labels[labelCheckin],
		TotalPrice:       labels[labelTotalPrice],
		DepartureName:    ev.Location,
		Start:            ev.Start,
		End:              ev.End,
		SourceEmailID:    ev.Properties[propSourceEmailID],
	}
	if dep, arr, ok := strings.Cut(labels[labelRoute], "→"); ok {
		d.DepartureCode = strings.TrimSpace(dep)
		d.ArrivalCode = strings.TrimSpace(arr)
	}
	return d
}

func parseLabels(description string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(description, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), markerPrefix) {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if _, seen := out[k]; !seen {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// mergeFlightData lets newly observed values overwrite the stored ones but
// never erases a stored value with an empty one. Times always follow the
// newest email.
func mergeFlightData(stored, incoming flightEventData) flightEventData {
	pick := func(newer, older string) string {
		if newer != "" {
			return newer
		}
		return older
	}

	merged := incoming
	merged.Slot = pick(incoming.Slot, stored.Slot)
	merged.Airline = pick(incoming.Airline, stored.Airline)
	merged.FlightNumber = pick(incoming.FlightNumber, stored.FlightNumber)
	merged.DepartureCode = pick(incoming.DepartureCode, stored.DepartureCode)
	merged.ArrivalCode = pick(incoming.ArrivalCode, stored.ArrivalCode)
	merged.DepartureName = pick(incoming.DepartureName, stored.DepartureName)
	merged.Passenger = pick(incoming.Passenger, stored.Passenger)
	merged.ConfirmationCode = pick(incoming.ConfirmationCode, stored.ConfirmationCode)
	merged.BookingReference = pick(incoming.BookingReference, stored.BookingReference)
	merged.Seat = pick(incoming.Seat, stored.Seat)
	merged.Aircraft = pick(incoming.Aircraft, stored.Aircraft)
	merged.CheckinURL = pick(incoming.CheckinURL, stored.CheckinURL)
	merged.TotalPrice = pick(incoming.TotalPrice, stored.TotalPrice)
	merged.SourceEmailID = pick(incoming.SourceEmailID, stored.SourceEmailID)
	if merged.Start.IsZero() {
		merged.Start, merged.End = stored.Start, stored.End
	}
	return merged
}

func (d flightEventData) fields() entity.EventFields {
	title := fmt.Sprintf("✈️ %s → %s", d.DepartureCode, d.ArrivalCode)
	if carrier := strings.TrimSpace(d.Airline + " " + d.FlightNumber); carrier != "" {
		title += " (" + carrier + ")"
	}

	var lines []string
	add := func(label, value string) {
		if value = strings.Join(strings.Fields(value), " "); value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add(labelAirline, d.Airline)
	add(labelFlight, d.FlightNumber)
	add(labelRoute, d.DepartureCode+" → "+d.ArrivalCode)
	add(labelPassenger, d.Passenger)
	add(labelConfirm, d.ConfirmationCode)
	add(labelReference, d.BookingReference)
	add(labelSeat, d.Seat)
	add(labelAircraft, d.Aircraft)
	add(labelCheckin, d.CheckinURL)
	add(labelTotalPrice, d.TotalPrice)

	lines = append(lines, "", markerLine("kind", kindFlight, "slot", d.Slot))
	for _, id := range []string{d.ConfirmationCode, d.BookingReference} {
		if id != "" {
			lines = append(lines, markerLine("id", Identifier{Value: id}.Tagged(d.Slot)))
		}
	}

	return entity.EventFields{
		Summary:     title,
		Description: strings.Join(lines, "\n"),
		Location:    d.DepartureName,
		Start:       d.Start,
		End:         d.End,
		Properties:  eventProperties(kindFlight, d.SourceEmailID),
	}
}

func eventProperties(kind, sourceEmailID string) map[string]string {
	props := map[string]string{
		propSource: SourceTag,
		propKind:   kind,
	}
	if sourceEmailID != "" {
		props[propSourceEmailID] = sourceEmailID
	}
	return props
}

var carShareStatusLabels = map[entity.BookingStatus]string{
	entity.StatusReserved:  "予約済み",
	entity.StatusChanged:   "予約変更",
	entity.StatusCancelled: "キャンセル",
	entity.StatusCompleted: "利用完了",
}

// carShareFields renders a car-share booking as a full snapshot
func carShareFields(b *entity.CarShareBooking) entity.EventFields {
	stationName := strings.TrimSpace(b.Station.Name)
	if stationName == "" {
		stationName = b.Station.Code
	}
	title := fmt.Sprintf("%s カーシェア: %s (%s)", b.Status.Emoji(), stationName, b.Provider.Label())

	var lines []string
	add := func(label, value string) {
		if value = strings.Join(strings.Fields(value), " "); value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("予約番号", normalizeIdentifier(b.BookingReference))
	add("確認番号", b.ConfirmationCode)
	add("状態", carShareStatusLabels[b.Status])
	add("利用者", b.UserName)
	add("ステーション", stationName)
	add("住所", b.Station.Address)
	if b.Car != nil {
		add("車種", b.Car.Type)
		add("車両名", b.Car.Name)
		add("ナンバー", b.Car.Number)
	}
	add("料金", b.TotalPrice)
	add("利用時間", fmt.Sprintf("%s - %s", b.Start.Format("2006-01-02 15:04"), b.End.Format("15:04")))

	received := ""
	if !b.EmailReceivedAt.IsZero() {
		received = b.EmailReceivedAt.UTC().Format(time.RFC3339)
	}
	lines = append(lines, "",
		markerLine("kind", kindCarShare, "provider", string(b.Provider), "station", b.Station.Key(),
			"status", string(b.Status), "received", received),
		markerLine("id", normalizeIdentifier(b.BookingReference)),
	)

	location := stationName
	if b.Station.Address != "" {
		location = stationName + ", " + b.Station.Address
	}

	return entity.EventFields{
		Summary:     title,
		Description: strings.Join(lines, "\n"),
		Location:    location,
		Start:       b.Start,
		End:         b.End,
		Properties:  eventProperties(kindCarShare, b.SourceEmailID),
	}
}

// sortEvents orders events by start then ID for stable picks
func sortEvents(events []entity.CalendarEventRef) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
}
