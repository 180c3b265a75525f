package report

import (
	"os/user"
	"strconv"
	"sync"
)

var owners sync.Map // uint32 -> string

// OwnerName resolves uid through the account database. Unknown ids are
// returned in decimal. Lookups are cached for the life of the process.
func OwnerName(uid uint32) string {
	if v, ok := owners.Load(uid); ok {
		return v.(string)
	}
	id := strconv.FormatUint(uint64(uid), 10)
	name := id
	if u, err := user.LookupId(id); err == nil && u.Username != "" {
		name = u.Username
	}
	owners.Store(uid, name)
	return name
}
