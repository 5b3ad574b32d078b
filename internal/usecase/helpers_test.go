package usecase

import (
	"time"

	"booking-calendar-sync/internal/domain/entity"
)

var (
	jst     = time.FixedZone("JST", 9*60*60)
	fixedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, jst)
)

func fixedNow() time.Time { return fixedAt }

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, jst)
}

func anaSegment() entity.FlightSegment {
	return entity.FlightSegment{
		Airline:       "ANA",
		FlightNumber:  "NH006",
		Departure:     entity.Airport{Code: "HND", Name: "Haneda"},
		Arrival:       entity.Airport{Code: "ITM", Name: "Itami"},
		DepartureTime: at(10, 8, 0),
		ArrivalTime:   at(10, 9, 5),
	}
}

func anaBooking(code, ref string) *entity.FlightBooking {
	return &entity.FlightBooking{
		ConfirmationCode: code,
		BookingReference: ref,
		PassengerName:    "YAMADA TARO",
		OutboundSegments: []entity.FlightSegment{anaSegment()},
		SourceEmailID:    "mail-1",
		EmailReceivedAt:  at(1, 8, 0),
	}
}

func carShare(ref string, status entity.BookingStatus, start, end, received time.Time) *entity.CarShareBooking {
	return &entity.CarShareBooking{
		BookingReference: ref,
		Provider:         entity.ProviderTimesCar,
		Status:           status,
		UserName:         "山田太郎",
		Station:          entity.Station{Name: "渋谷駅前"},
		Start:            start,
		End:              end,
		SourceEmailID:    "mail-" + ref,
		EmailReceivedAt:  received,
	}
}

func outbound1(b *entity.FlightBooking) entity.SlottedSegment {
	return b.Segments()[0]
}
