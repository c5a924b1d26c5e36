////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"net"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/events"
	"gitlab.com/elixxir/aggregator/internal"
	"gitlab.com/xx_network/primitives/id"
)

// This object is used by the aggregator instance.
// It should be constructed using a viper object
type Params struct {
	// Identity allowed to create and finalize rooms, either the base64 of a
	// marshalled id or a name that is hashed into one
	Owner string

	Database Database
	Redis    Redis
	Room     Room
	Paths    Paths

	DevMode bool
}

// Room contains the config params of vote rooms
type Room struct {
	VotingPeriod time.Duration
}

// NewParams gets elements of the viper object
// and updates the params object. It returns params
// unless it fails to parse in which it case returns error
func NewParams(vip *viper.Viper) (*Params, error) {

	var err error

	var require = func(s string, key string) {
		if s == "" {
			jww.FATAL.Panicf("%s must be set in params", key)
		}
	}

	params := Params{}

	params.Owner = vip.GetString("owner")
	require(params.Owner, "owner")

	// Obtain database connection info
	rawAddr := vip.GetString("database.address")
	var addr, port string
	if rawAddr != "" {
		addr, port, err = net.SplitHostPort(rawAddr)
		if err != nil {
			return nil, errors.Errorf("Unable to get database port from %s: %+v",
				rawAddr, err)
		}
	}
	params.Database.Name = vip.GetString("database.name")
	params.Database.Username = vip.GetString("database.username")
	params.Database.Password = vip.GetString("database.password")
	params.Database.Address = addr
	params.Database.Port = port

	params.Redis.Address = vip.GetString("events.redis.address")
	params.Redis.Password = vip.GetString("events.redis.password")
	params.Redis.DB = vip.GetInt("events.redis.db")
	params.Redis.Channel = vip.GetString("events.redis.channel")
	if params.Redis.Channel == "" {
		params.Redis.Channel = events.DefaultChannel
	}

	params.Room.VotingPeriod = vip.GetDuration("room.votingPeriod")
	if params.Room.VotingPeriod < 0 {
		return nil, errors.Errorf("room.votingPeriod cannot be negative, "+
			"got %s", params.Room.VotingPeriod)
	}

	params.Paths.Log = vip.GetString("paths.log")
	if params.Paths.Log == "" {
		params.Paths.Log = "./aggregator.log"
	}

	params.DevMode = vip.GetBool("devMode")

	return &params, nil
}

// Create a new Definition object from the Params object
func (p *Params) ConvertToDefinition() (*internal.Definition, error) {
	owner, err := collection.ParseID(p.Owner, id.User)
	if err != nil {
		return nil, errors.WithMessagef(err, "Invalid owner %q", p.Owner)
	}

	def := &internal.Definition{
		Owner:        owner,
		DevMode:      p.DevMode,
		DbUsername:   p.Database.Username,
		DbPassword:   p.Database.Password,
		DbName:       p.Database.Name,
		DbAddress:    p.Database.Address,
		DbPort:       p.Database.Port,
		VotingPeriod: p.Room.VotingPeriod,
		Redis: events.RedisConfig{
			Address:  p.Redis.Address,
			Password: p.Redis.Password,
			DB:       p.Redis.DB,
			Channel:  p.Redis.Channel,
		},
	}

	return def, nil
}
