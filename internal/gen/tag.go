package gen

import (
	"fmt"
	"strconv"
	"strings"
)

// tag is a parsed `db` struct tag.
//
//	db:"<column>[,pk][,autoincrement][,notnull][,unique][,size=N][,msgpack]"
//	db:"-"
type tag struct {
	column  string
	skip    bool
	pk      bool
	auto    bool
	notnull bool
	unique  bool
	msgpack bool
	size    int
}

func parseTag(s string) (tag, error) {
	if s == "-" {
		return tag{skip: true}, nil
	}
	parts := strings.Split(s, ",")
	t := tag{column: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "pk":
			t.pk = true
		case opt == "autoincrement":
			t.auto = true
		case opt == "notnull":
			t.notnull = true
		case opt == "unique":
			t.unique = true
		case opt == "msgpack":
			t.msgpack = true
		case strings.HasPrefix(opt, "size="):
			n, err := strconv.Atoi(strings.TrimPrefix(opt, "size="))
			if err != nil || n <= 0 {
				return tag{}, fmt.Errorf("invalid size %q", opt)
			}
			t.size = n
		case opt == "":
		default:
			return tag{}, fmt.Errorf("unknown option %q", opt)
		}
	}
	return t, nil
}
