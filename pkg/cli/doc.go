// Package cli implements boq-admin, the operator tool for the BOQ backend.
//
// # Commands
//
// create-admin: Store an administrator account. Administrators carry no
// role column; the admin role is stamped into their tokens at login.
//
//	boq-admin create-admin \
//		--db-url postgres://localhost/boq?sslmode=disable \
//		--email root@example.com \
//		--name "Site Admin"
//
// The password is read from --password or $BOQ_ADMIN_PASSWORD.
//
// migrate: Apply the embedded schema migrations and list what is applied.
//
//	boq-admin migrate --db-url $BOQ_DATABASE_URL
//
// ratelimit-reset: Clear the shared Redis rate limit window of one client
// address, for example after a lockout during an incident.
//
//	boq-admin ratelimit-reset --redis-url redis://localhost:6379 --ip 203.0.113.9
//
// Connection flags default to the same BOQ_* variables the server reads.
package cli
