// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
)

// socialGraph manages the one-directional friend lists. Adding B to A's
// list never changes B's list.
type socialGraph struct {
	accounts accountRepository
}

func newSocialGraph(accounts accountRepository) *socialGraph {
	return &socialGraph{accounts: accounts}
}

func (g *socialGraph) resolveFriendCode(code string) (*Account, error) {
	code = normalizeFriendCode(code)
	if code == "" {
		return nil, validationError("friend code is required")
	}
	if !isFriendCode(code) {
		return nil, errFriendCodeNotFound
	}
	acct, err := g.accounts.findByFriendCode(code)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, errFriendCodeNotFound
	}
	return acct, nil
}

// addFriend appends the owner of code to requesterID's friend list and
// returns that owner.
func (g *socialGraph) addFriend(requesterID, code string) (*Account, error) {
	friend, err := g.resolveFriendCode(code)
	if err != nil {
		return nil, err
	}
	requester, err := g.accounts.findByID(requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, errAccountNotFound
	}
	if friend.ID == requester.ID {
		return nil, errCannotAddSelf
	}
	for _, id := range requester.Friends {
		if id == friend.ID {
			return nil, errAlreadyFriends
		}
	}

	friends := make([]string, 0, len(requester.Friends)+1)
	friends = append(friends, requester.Friends...)
	friends = append(friends, friend.ID)
	if err := g.accounts.updateFriendList(requester.ID, friends); err != nil {
		return nil, err
	}
	return friend, nil
}

// removeFriend drops targetID from requesterID's list. Removing an id
// that isn't there is a no-op.
func (g *socialGraph) removeFriend(requesterID, targetID string) error {
	requester, err := g.accounts.findByID(requesterID)
	if err != nil {
		return err
	}
	if requester == nil {
		return errAccountNotFound
	}
	friends := make([]string, 0, len(requester.Friends))
	for _, id := range requester.Friends {
		if id != targetID {
			friends = append(friends, id)
		}
	}
	if len(friends) == len(requester.Friends) {
		return nil
	}
	return g.accounts.updateFriendList(requester.ID, friends)
}

// replaceFriends overwrites the whole list without checking the ids.
func (g *socialGraph) replaceFriends(requesterID string, friends []string) error {
	return g.accounts.updateFriendList(requesterID, friends)
}

type updateFriendsRequest struct {
	Friends json.RawMessage `json:"friends"`
}

func (req updateFriendsRequest) ids() ([]string, error) {
	var out []string
	if !isJSONArray(req.Friends) || json.Unmarshal(req.Friends, &out) != nil {
		return nil, validationError("friends must be an array")
	}
	return out, nil
}

type addFriendRequest struct {
	Code string `json:"code"`
}

type removeFriendRequest struct {
	FriendID string `json:"friendId"`
}

// addSocialRoutes registers friend code resolution on public and the
// friend list mutations on authed.
func addSocialRoutes(public, authed *mux.Router, logger log.Logger, graph *socialGraph) {
	public.Methods("GET").Path("/api/resolve-friend-code").HandlerFunc(resolveFriendCodeRoute(logger, graph))

	authed.Methods("POST").Path("/api/update-friends").HandlerFunc(updateFriendsRoute(logger, graph))
	authed.Methods("POST").Path("/api/add-friend").HandlerFunc(addFriendRoute(logger, graph))
	authed.Methods("POST").Path("/api/remove-friend").HandlerFunc(removeFriendRoute(logger, graph))
}

func resolveFriendCodeRoute(logger log.Logger, graph *socialGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, err := graph.resolveFriendCode(r.URL.Query().Get("code"))
		if err != nil {
			encodeError(w, logger, "resolve-friend-code", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"user": acct.profile(),
		}))
	}
}

func updateFriendsRoute(logger log.Logger, graph *socialGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateFriendsRequest
		if err := decodeBody(r, &req); err != nil {
			encodeError(w, logger, "update-friends", err)
			return
		}
		ids, err := req.ids()
		if err != nil {
			encodeError(w, logger, "update-friends", err)
			return
		}
		if err := graph.replaceFriends(accountIDFromContext(r.Context()), ids); err != nil {
			encodeError(w, logger, "update-friends", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"message": "Friends updated successfully",
		}))
	}
}

func addFriendRoute(logger log.Logger, graph *socialGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addFriendRequest
		if err := decodeBody(r, &req); err != nil {
			encodeError(w, logger, "add-friend", err)
			return
		}
		friend, err := graph.addFriend(accountIDFromContext(r.Context()), req.Code)
		if err != nil {
			encodeError(w, logger, "add-friend", err)
			return
		}
		respondJSON(w, http.StatusOK, success(map[string]interface{}{
			"user": friend.profile(),
		}))
	}
}

func removeFriendRoute(logger log.Logger, graph *socialGraph) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req removeFriendRequest
		if err := decodeBody(r, &req); err != nil {
			encodeError(w, logger, "remove-friend", err)
			return
		}
		if req.FriendID == "" {
			encodeError(w, logger, "remove-friend", validationError("friendId is required"))
			return
		}
		if err := graph.removeFriend(accountIDFromContext(r.Context()), req.FriendID); err != nil {
			encodeError(w, logger, "remove-friend", err)
			return
		}
		respondJSON(w, http.StatusOK, success(nil))
	}
}
