package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// CacheEnvelopeVersion is the version tag written into the local
// annotation cache envelope.
const CacheEnvelopeVersion = "1.0"
