package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
)

func TestAllow_AdminBypassesEverything(t *testing.T) {
	admin := Actor{ID: uuid.New(), Role: models.RoleCustomer, IsAdmin: true}
	res := Resource{CustomerID: uuid.New()}

	for _, action := range []Action{
		ActionOrderCreate, ActionOrderEdit, ActionOrderCancel, ActionOrderComplete,
		ActionOrderView, ActionOrdersBrowse, ActionOfferCreate, ActionOfferEdit,
		ActionOfferDelete, ActionOfferAccept, ActionOfferReject, ActionOffersView,
		ActionReviewCreate, ActionUserManage, ActionCatalogManage,
	} {
		assert.NoError(t, Allow(admin, action, res), "admin must pass %s", action)
	}
}

func TestAllow_OrderCreateRequiresCustomerRole(t *testing.T) {
	customer := Actor{ID: uuid.New(), Role: models.RoleCustomer}
	executor := Actor{ID: uuid.New(), Role: models.RoleExecutor}

	assert.NoError(t, Allow(customer, ActionOrderCreate, Resource{}))

	err := Allow(executor, ActionOrderCreate, Resource{})
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestAllow_OwnerOnlyActions(t *testing.T) {
	ownerID := uuid.New()
	owner := Actor{ID: ownerID, Role: models.RoleCustomer}
	stranger := Actor{ID: uuid.New(), Role: models.RoleCustomer}
	res := Resource{CustomerID: ownerID}

	for _, action := range []Action{ActionOrderEdit, ActionOrderCancel, ActionOfferAccept, ActionOfferReject, ActionOffersView, ActionReviewCreate} {
		assert.NoError(t, Allow(owner, action, res), "owner must pass %s", action)
		assert.True(t, apperror.IsPermissionDenied(Allow(stranger, action, res)), "stranger must fail %s", action)
	}
}

func TestAllow_OrderCompleteOnlyByAssignedExecutor(t *testing.T) {
	executorID := uuid.New()
	executor := Actor{ID: executorID, Role: models.RoleExecutor}
	other := Actor{ID: uuid.New(), Role: models.RoleExecutor}
	customer := Actor{ID: uuid.New(), Role: models.RoleCustomer}

	assigned := Resource{CustomerID: customer.ID, ExecutorID: &executorID}
	assert.NoError(t, Allow(executor, ActionOrderComplete, assigned))
	assert.True(t, apperror.IsPermissionDenied(Allow(other, ActionOrderComplete, assigned)))
	assert.True(t, apperror.IsPermissionDenied(Allow(customer, ActionOrderComplete, assigned)))

	unassigned := Resource{CustomerID: customer.ID}
	assert.True(t, apperror.IsPermissionDenied(Allow(executor, ActionOrderComplete, unassigned)))
}

func TestAllow_OfferCreateForbidsSelfDealing(t *testing.T) {
	executor := Actor{ID: uuid.New(), Role: models.RoleExecutor}
	customerAsExecutor := Actor{ID: uuid.New(), Role: models.RoleExecutor}
	customerRole := Actor{ID: uuid.New(), Role: models.RoleCustomer}

	res := Resource{CustomerID: customerAsExecutor.ID}

	assert.NoError(t, Allow(executor, ActionOfferCreate, res))
	assert.True(t, apperror.IsPermissionDenied(Allow(customerAsExecutor, ActionOfferCreate, res)))
	assert.True(t, apperror.IsPermissionDenied(Allow(customerRole, ActionOfferCreate, res)))
}

func TestAllow_OfferEditOnlyByAuthor(t *testing.T) {
	authorID := uuid.New()
	author := Actor{ID: authorID, Role: models.RoleExecutor}
	stranger := Actor{ID: uuid.New(), Role: models.RoleExecutor}
	res := Resource{CustomerID: uuid.New(), ExecutorID: &authorID}

	assert.NoError(t, Allow(author, ActionOfferEdit, res))
	assert.NoError(t, Allow(author, ActionOfferDelete, res))
	assert.True(t, apperror.IsPermissionDenied(Allow(stranger, ActionOfferEdit, res)))
	assert.True(t, apperror.IsPermissionDenied(Allow(stranger, ActionOfferDelete, res)))
}

func TestAllow_OrderViewParticipantsOnly(t *testing.T) {
	customerID := uuid.New()
	executorID := uuid.New()
	res := Resource{CustomerID: customerID, ExecutorID: &executorID}

	assert.NoError(t, Allow(Actor{ID: customerID, Role: models.RoleCustomer}, ActionOrderView, res))
	assert.NoError(t, Allow(Actor{ID: executorID, Role: models.RoleExecutor}, ActionOrderView, res))
	assert.True(t, apperror.IsPermissionDenied(Allow(Actor{ID: uuid.New(), Role: models.RoleExecutor}, ActionOrderView, res)))
}

func TestAllow_BrowseRequiresExecutorRole(t *testing.T) {
	assert.NoError(t, Allow(Actor{ID: uuid.New(), Role: models.RoleExecutor}, ActionOrdersBrowse, Resource{}))
	assert.True(t, apperror.IsPermissionDenied(Allow(Actor{ID: uuid.New(), Role: models.RoleCustomer}, ActionOrdersBrowse, Resource{})))
}

func TestAllow_ManagementIsAdminOnly(t *testing.T) {
	user := Actor{ID: uuid.New(), Role: models.RoleCustomer}
	assert.True(t, apperror.IsPermissionDenied(Allow(user, ActionUserManage, Resource{})))
	assert.True(t, apperror.IsPermissionDenied(Allow(user, ActionCatalogManage, Resource{})))
}
