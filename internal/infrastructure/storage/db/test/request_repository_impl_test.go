package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestRepositoryImplementations(t *testing.T) {
	repoManagers := createRepoManagers(t)

	for i := range repoManagers {
		repoManager := repoManagers[i]

		t.Run(repoManager.Name, func(t *testing.T) {
			repo := repoManager.RequestRepository()
			ctx := context.Background()

			t.Run("add_and_get", func(t *testing.T) {
				req := makeEvmTransferRequest()
				id, err := repo.AddRequest(ctx, req)
				require.NoError(t, err)
				require.Equal(t, id, req.ID)

				stored, err := repo.GetRequest(ctx, id)
				require.NoError(t, err)
				require.Equal(t, req.Operation.EvmTransfer.Value.String(), stored.Operation.EvmTransfer.Value.String())
				require.Equal(t, domain.RequestStatusPending, stored.Status)
				require.Equal(t, domain.RoleAdmin, stored.Role)

				_, err = repo.GetRequest(ctx, id+1000)
				require.ErrorIs(t, err, domain.ErrRequestNotFound)
			})

			t.Run("ids_strictly_increase", func(t *testing.T) {
				ids := make([]uint64, 0, 10)
				for i := 0; i < 10; i++ {
					id, err := repo.AddRequest(ctx, makeRenameRequest("default"))
					require.NoError(t, err)
					ids = append(ids, id)
				}
				for i := 1; i < len(ids); i++ {
					require.Greater(t, ids[i], ids[i-1])
				}
			})

			t.Run("concurrent_adds", func(t *testing.T) {
				ids := make(chan uint64, 20)
				wg := &sync.WaitGroup{}
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						id, err := repo.AddRequest(ctx, makeRenameRequest("default"))
						require.NoError(t, err)
						ids <- id
					}()
				}
				wg.Wait()
				close(ids)

				seen := make(map[uint64]bool)
				for id := range ids {
					require.False(t, seen[id])
					seen[id] = true
				}
			})

			t.Run("update_and_list", func(t *testing.T) {
				id, err := repo.AddRequest(ctx, makeRenameRequest("default"))
				require.NoError(t, err)

				err = repo.UpdateRequest(ctx, id, func(r *domain.Request) (*domain.Request, error) {
					if err := r.StartExecution(domain.RoleAdmin, "bob", r.CreatedAt); err != nil {
						return nil, err
					}
					return r, r.Complete(domain.ExecutionResult{Method: "rename_account"}, r.CreatedAt)
				})
				require.NoError(t, err)

				err = repo.UpdateRequest(ctx, id, func(r *domain.Request) (*domain.Request, error) {
					return nil, errors.New("boom")
				})
				require.Error(t, err)

				completed, err := repo.ListRequestsByStatus(ctx, domain.RequestStatusCompleted)
				require.NoError(t, err)
				require.Len(t, completed, 1)
				require.Equal(t, id, completed[0].ID)
				require.Equal(t, "rename_account", completed[0].Result.Method)

				pending, err := repo.ListRequestsByStatus(ctx, domain.RequestStatusPending)
				require.NoError(t, err)
				require.Len(t, pending, 31)
				for i := 1; i < len(pending); i++ {
					require.Less(t, pending[i-1].ID, pending[i].ID)
				}

				err = repo.UpdateRequest(ctx, 9999, func(r *domain.Request) (*domain.Request, error) {
					return r, nil
				})
				require.ErrorIs(t, err, domain.ErrRequestNotFound)
			})

			t.Run("delete_and_restore", func(t *testing.T) {
				all, nextID, err := repo.ListAllRequests(ctx)
				require.NoError(t, err)
				require.Len(t, all, 32)
				require.Equal(t, all[len(all)-1].ID+1, nextID)

				require.NoError(t, repo.DeleteRequest(ctx, all[0].ID))
				require.ErrorIs(t, repo.DeleteRequest(ctx, all[0].ID), domain.ErrRequestNotFound)

				// Ids are never reused after a deletion.
				id, err := repo.AddRequest(ctx, makeRenameRequest("default"))
				require.NoError(t, err)
				require.Equal(t, nextID, id)

				require.NoError(t, repo.RestoreRequests(ctx, all[:2], nextID+10))
				restored, restoredNextID, err := repo.ListAllRequests(ctx)
				require.NoError(t, err)
				require.Len(t, restored, 2)
				require.Equal(t, nextID+10, restoredNextID)

				id, err = repo.AddRequest(ctx, makeRenameRequest("default"))
				require.NoError(t, err)
				require.Equal(t, nextID+10, id)
			})
		})
	}
}
