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

	"github.com/spf13/cobra"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/group"
	"gitlab.com/xx_network/primitives/id"
)

var groupKeyPath string

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Creates, scores, finalizes and inspects score groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <group>",
	Short: "Opens a group owned by the caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGroup(args[0], func(gm *group.Manager, caller, groupId *id.ID) error {
			return gm.CreateGroup(caller, groupId)
		})
	},
}

var groupSubmitCmd = &cobra.Command{
	Use:   "submit <group> <ciphertext>",
	Short: "Submits the caller's hex encrypted score to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := loadPublicKey(groupKeyPath)
		if err != nil {
			return err
		}
		ciphertext, err := parseCiphertext(args[1])
		if err != nil {
			return err
		}
		return withGroup(args[0], func(gm *group.Manager, caller, groupId *id.ID) error {
			return gm.SubmitScore(caller, groupId, ciphertext, pk)
		})
	},
}

var groupFinalizeCmd = &cobra.Command{
	Use:   "finalize <group>",
	Short: "Publishes the encrypted sum and count of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := loadPublicKey(groupKeyPath)
		if err != nil {
			return err
		}
		return withGroup(args[0], func(gm *group.Manager, caller, groupId *id.ID) error {
			if err := gm.FinalizeGroup(caller, groupId, pk); err != nil {
				return err
			}
			return printGroup(gm, groupId)
		})
	},
}

var groupShowCmd = &cobra.Command{
	Use:   "show <group>",
	Short: "Prints the state of a group, or its result once finalized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGroup(args[0], func(gm *group.Manager, _, groupId *id.ID) error {
			return printGroup(gm, groupId)
		})
	},
}

var groupSubmittedCmd = &cobra.Command{
	Use:   "submitted <group> <participant>",
	Short: "Reports whether a participant scored in a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, err := collection.ParseID(args[1], id.User)
		if err != nil {
			return err
		}
		return withGroup(args[0], func(gm *group.Manager, _, groupId *id.ID) error {
			submitted, err := gm.HasSubmitted(groupId, participant)
			if err != nil {
				return err
			}
			fmt.Println(submitted)
			return nil
		})
	},
}

// withGroup runs fn against a fresh instance with the parsed caller and group
func withGroup(groupArg string,
	fn func(gm *group.Manager, caller, groupId *id.ID) error) error {
	groupId, err := collection.ParseID(groupArg, id.Generic)
	if err != nil {
		return err
	}
	instance := newInstance()
	defer func() { _ = instance.Shutdown() }()

	callerId, err := getCaller(instance)
	if err != nil {
		return err
	}
	return classify(fn(instance.GetGroupManager(), callerId, groupId))
}

func printGroup(gm *group.Manager, groupId *id.ID) error {
	finalized, err := gm.IsFinalized(groupId)
	if err != nil {
		return err
	}
	if finalized {
		result, err := gm.GetResult(groupId)
		if err != nil {
			return err
		}
		fmt.Printf("group %s finalized at %s\n  count: %d\n  sum: %s\n",
			groupId, result.Finalized, result.Count,
			hex.EncodeToString(result.Sum))
		return nil
	}

	details, err := gm.GetGroupDetails(groupId)
	if err != nil {
		return err
	}
	fmt.Printf("group %s owned by %s\n  participants: %d\n", groupId,
		details.Owner, details.ParticipantCount)
	return nil
}

func init() {
	groupSubmitCmd.Flags().StringVarP(&groupKeyPath, "key", "k", "",
		"Public key file the score is encrypted under")
	groupFinalizeCmd.Flags().StringVarP(&groupKeyPath, "key", "k", "",
		"Public key file the scores are encrypted under")

	groupCmd.AddCommand(groupCreateCmd, groupSubmitCmd, groupFinalizeCmd,
		groupShowCmd, groupSubmittedCmd)
	rootCmd.AddCommand(groupCmd)
}
