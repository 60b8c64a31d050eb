// Package clientip resolves the originating client address of a request.
//
// Forwarding headers such as X-Forwarded-For are trivial to spoof, so a
// Resolver reads only the headers it was told to trust, in order, and falls
// back to the TCP peer address:
//
//	res := clientip.New(clientip.HeaderCFConnectingIP, clientip.HeaderXForwardedFor)
//	r.Use(res.Middleware)
//
//	ip := clientip.FromContext(req.Context())
//
// Addresses are normalized, so IPv4-mapped IPv6 addresses compare equal to
// their IPv4 form.
package clientip
