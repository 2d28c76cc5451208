// Package auth provides authentication and token lifecycle management for
// the BOQ backend.
//
// # Overview
//
// Two principal kinds share one token namespace. Regular users live in an
// AccountStore and carry a stored Role. Administrators live in a separate
// AdminStore and have no stored role: their role is stamped into the access
// token by AdminLogin and overlaid onto the principal by ValidateToken.
//
// # Tokens
//
// Access tokens (15 minutes) and refresh tokens (7 days) are HS256 JWTs
// signed with independent secrets:
//
//	codec, err := auth.NewTokenCodec(auth.CodecConfig{
//		AccessSecret:  accessSecret,
//		RefreshSecret: refreshSecret,
//	})
//
// Claims: {sub, email, type: "access"|"refresh", role?, exp}.
//
// # Service
//
//	svc, err := auth.NewService(auth.ServiceConfig{
//		Accounts: accounts,
//		Admins:   admins,
//		Codec:    codec,
//		Hasher:   hasher,
//	})
//	pair, err := svc.Login(ctx, email, password)
//	principal, err := svc.ValidateToken(ctx, pair.AccessToken)
//
// Every token verification failure is reported as ErrInvalidToken, and both
// unknown email and wrong password are reported as ErrInvalidCredentials.
//
// # Revocation
//
// Logout inserts the token into a RevocationStore. The default store is in
// process memory, so revocations are lost on restart and are not shared
// between instances. When the registry grows past SweepThreshold (default
// 1000), the logout that crossed it sweeps expired entries before returning.
package auth
