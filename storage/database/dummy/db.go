package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

type (
	DB struct {
		class  *classTable
		enroll *enrollTable
	}

	classTable struct {
		sync.RWMutex
		classes  map[string]*class.Class
		sessions map[string]*class.Session
	}

	enrollTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}
)

func Open() (*DB, error) {
	db := &DB{
		class: &classTable{
			classes:  make(map[string]*class.Class),
			sessions: make(map[string]*class.Session),
		},
		enroll: &enrollTable{table: make(map[string]*enroll.Enrollment)},
	}
	return db, nil
}
