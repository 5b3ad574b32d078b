package extractor

const flightSystemPrompt = `You extract airline booking details from emails.

Reply with JSON only, in this shape:
{
  "confirmation_code": "string",
  "booking_reference": "string",
  "passenger_name": "string",
  "outbound_segments": [
    {
      "airline": "string",
      "flight_number": "string",
      "departure_airport": {"code": "IATA code", "name": "string", "city": "string"},
      "arrival_airport": {"code": "IATA code", "name": "string", "city": "string"},
      "departure_time": "ISO 8601 with offset",
      "arrival_time": "ISO 8601 with offset",
      "aircraft_type": "string",
      "seat_number": "string"
    }
  ],
  "return_segments": [],
  "total_price": "string with currency",
  "checkin_url": "string"
}

Rules:
- Use 3-letter IATA airport codes.
- Include the UTC offset in every timestamp when the email states or implies it.
- Use the first passenger when several are listed.
- confirmation_code comes only from a "確認番号" or "Confirmation Number" field; leave it empty otherwise.
- booking_reference is the first "予約番号" in the email.
- return_segments is empty for one-way trips.
- Reply with null when the email holds no flight booking.`

const carShareSystemPrompt = `You extract car-share reservation details from emails.

Reply with JSON only, in this shape:
{
  "booking_reference": "string",
  "confirmation_code": "string",
  "status": "reserved|changed|cancelled|completed",
  "user_name": "string",
  "start_time": "ISO 8601 with offset",
  "end_time": "ISO 8601 with offset",
  "station": {"station_name": "string", "station_address": "string", "station_code": "string"},
  "car": {"car_type": "string", "car_number": "string", "car_name": "string"},
  "total_price": "string with currency"
}

Rules:
- Decide status from the subject line first, then the body:
  reserved for 予約を受付けました or 予約開始,
  changed for 変更,
  cancelled for キャンセル, 取消 or 予約を取り消し,
  completed for 利用終了, 返却 or 利用完了.
- Include the UTC offset in every timestamp.
- Reply with null when the email holds no car-share reservation.`

const userPromptTemplate = `Email Subject: %s
%s
Email Content:
%s`
