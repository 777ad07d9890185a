package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Listing is an account offered for sale. Fields holds whatever the seller
// submitted; only ID, OwnerID and CreatedAt are owned by the server.
type Listing struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Fields    datatypes.JSONMap `json:"fields" gorm:"type:jsonb;not null"`
	OwnerID   *uuid.UUID        `json:"ownerId,omitempty" gorm:"type:uuid;index"`
	CreatedAt time.Time         `json:"createdAt" gorm:"not null;index"`
}

// Keys the server controls. Caller-supplied values for them are dropped.
var reservedListingKeys = map[string]struct{}{
	"id":        {},
	"_id":       {},
	"createdat": {},
	"dateadded": {},
	"ownerid":   {},
}

// Keys that look like credentials and must never leave the service.
var credentialKeys = map[string]struct{}{
	"password":      {},
	"passwordhash":  {},
	"password_hash": {},
	"hash":          {},
	"salt":          {},
	"token":         {},
	"secret":        {},
}

// SanitizeListingFields copies fields without server-controlled keys.
func SanitizeListingFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if _, reserved := reservedListingKeys[strings.ToLower(k)]; reserved {
			continue
		}
		out[k] = v
	}
	return out
}

// IsCredentialKey reports whether a field name looks like credential material.
func IsCredentialKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(key)]
	return ok
}

// Document renders the listing as the flat object returned by the API.
// Credential-shaped fields are projected out at every depth and server values
// win over anything stored under the same key.
func (l *Listing) Document() map[string]interface{} {
	doc := stripCredentials(l.Fields)
	doc["id"] = l.ID.String()
	doc["createdAt"] = l.CreatedAt
	if l.OwnerID != nil {
		doc["ownerId"] = l.OwnerID.String()
	}
	return doc
}

func stripCredentials(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		if IsCredentialKey(k) {
			continue
		}
		out[k] = stripValue(v)
	}
	return out
}

func stripValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return stripCredentials(val)
	case datatypes.JSONMap:
		return stripCredentials(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = stripValue(item)
		}
		return out
	default:
		return v
	}
}
