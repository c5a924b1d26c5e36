////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/room"
	"gitlab.com/xx_network/primitives/id"
)

var roomKeyPath string

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Creates, votes in, finalizes and inspects vote rooms",
}

var roomCreateCmd = &cobra.Command{
	Use:   "create <room> <member>...",
	Short: "Opens a room with the given member ids",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		members := make([]uint64, 0, len(args)-1)
		for _, arg := range args[1:] {
			member, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "member %q", arg)
			}
			members = append(members, member)
		}
		return withRoom(args[0], func(rm *room.Manager, caller, roomId *id.ID) error {
			return rm.Create(caller, roomId, members)
		})
	},
}

var roomSubmitCmd = &cobra.Command{
	Use:   "submit <room> <member>=<ciphertext>...",
	Short: "Submits one hex ciphertext per member of a room",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := loadPublicKey(roomKeyPath)
		if err != nil {
			return err
		}
		votes, err := parseVotes(args[1:])
		if err != nil {
			return err
		}
		return withRoom(args[0], func(rm *room.Manager, caller, roomId *id.ID) error {
			return rm.SubmitVotes(caller, roomId, votes, pk)
		})
	},
}

var roomFinalizeCmd = &cobra.Command{
	Use:   "finalize <room>",
	Short: "Publishes the totals of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoom(args[0], func(rm *room.Manager, caller, roomId *id.ID) error {
			if err := rm.Finalize(caller, roomId); err != nil {
				return err
			}
			return printRoom(rm, roomId)
		})
	},
}

var roomShowCmd = &cobra.Command{
	Use:   "show <room>",
	Short: "Prints the state of a room, or its totals once finalized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoom(args[0], func(rm *room.Manager, _, roomId *id.ID) error {
			return printRoom(rm, roomId)
		})
	},
}

var roomVotedCmd = &cobra.Command{
	Use:   "voted <room> <participant>",
	Short: "Reports whether a participant voted in a room",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, err := collection.ParseID(args[1], id.User)
		if err != nil {
			return err
		}
		return withRoom(args[0], func(rm *room.Manager, _, roomId *id.ID) error {
			voted, err := rm.HasVoted(roomId, participant)
			if err != nil {
				return err
			}
			fmt.Println(voted)
			return nil
		})
	},
}

// withRoom runs fn against a fresh instance with the parsed caller and room
func withRoom(roomArg string,
	fn func(rm *room.Manager, caller, roomId *id.ID) error) error {
	roomId, err := collection.ParseID(roomArg, id.Generic)
	if err != nil {
		return err
	}
	instance := newInstance()
	defer func() { _ = instance.Shutdown() }()

	callerId, err := getCaller(instance)
	if err != nil {
		return err
	}
	return classify(fn(instance.GetRoomManager(), callerId, roomId))
}

// parseVotes splits member=hex arguments into votes
func parseVotes(args []string) ([]room.Vote, error) {
	votes := make([]room.Vote, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("vote %q is not <member>=<ciphertext>",
				arg)
		}
		member, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "member of vote %q", arg)
		}
		ciphertext, err := parseCiphertext(parts[1])
		if err != nil {
			return nil, err
		}
		votes = append(votes, room.Vote{Member: member, Ciphertext: ciphertext})
	}
	return votes, nil
}

func printRoom(rm *room.Manager, roomId *id.ID) error {
	finalized, err := rm.IsFinalized(roomId)
	if err != nil {
		return err
	}
	if finalized {
		details, err := rm.GetFinalizedDetails(roomId)
		if err != nil {
			return err
		}
		fmt.Printf("room %s finalized at %s with %d voters\n", roomId,
			details.Finalized, details.ParticipantCount)
		for _, total := range details.Totals {
			fmt.Printf("  %d: %s\n", total.Member, hex.EncodeToString(total.Total))
		}
		return nil
	}

	details, err := rm.GetRoomDetails(roomId)
	if err != nil {
		return err
	}
	fmt.Printf("room %s owned by %s\n  members: %v\n  voters: %d\n"+
		"  deadline: %s\n", roomId, details.Owner, details.Members,
		details.ParticipantCount, details.Deadline)
	return nil
}

func init() {
	roomSubmitCmd.Flags().StringVarP(&roomKeyPath, "key", "k", "",
		"Public key file the votes are encrypted under")

	roomCmd.AddCommand(roomCreateCmd, roomSubmitCmd, roomFinalizeCmd,
		roomShowCmd, roomVotedCmd)
	rootCmd.AddCommand(roomCmd)
}
