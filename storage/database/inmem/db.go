// Package inmemdb keeps the identity API's users in process memory.
package inmemdb

import (
	"sync"

	"github.com/trezcool/campus/core/user"
)

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User // {id: user}
}

type DB struct {
	user *userTable
}

func NewDB() *DB {
	return &DB{user: &userTable{table: make(map[string]*user.User)}}
}
