// Package http provides the JSON transport for the reservation API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness check.
//   - GET /metrics: Prometheus exposition, when a metrics handler is configured.
//   - GET /spaces, POST /spaces, GET/PUT/DELETE /spaces/{spaceID}: space catalog
//     exchanging the `spaceDTO` payload defined in space_handler.go. Mutations
//     require a manager token. PUT replaces the whole settings list.
//   - GET /spaces/availability?start=&end=: whether each space is free during the
//     RFC 3339 interval.
//   - GET /spaces/{spaceID}/reservations?date=YYYY-MM-DD, POST same path: the
//     reservations of a local date, and reservation creation.
//   - GET /reservations?date=YYYY-MM-DD: every space with its reservations on the
//     date, today by default.
//   - GET /members/me/reservations?when=upcoming|previous&page=&size=: the
//     calling member's reservations, paged.
//   - GET /guests/reservations?name=&from=&page=&size=: a guest's reservations
//     ending at or after from (default now), paged.
//   - GET/PUT/DELETE /spaces/{spaceID}/reservations/{reservationID}: a single
//     reservation. Guests prove ownership with the X-Reservation-Password header
//     or, on PUT, the password body field.
//
// An `Authorization: Bearer <jwt>` header (HS256) identifies a member by its
// `sub` claim; `role: manager` grants manager rights. Without the header the
// caller is a guest.
//
// Errors are rendered as {"error_code","message","errors","details"} where
// error_code is the upper-cased application.ErrorKind of the failure and
// details carries the settings or unavailable windows behind a rejection.
package http
