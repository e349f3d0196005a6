package contract

import (
	"errors"
	"testing"

	"vehicleregistry/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintFirstRecord(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	id, err := h.cc.Mint(h.ctx(ownerID), aliceID, scenarioVIN, "Honda", "Accord", 2020, 50000, "Excellent", "ipfs://meta/0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	ev := h.takeEvent()
	require.NotNil(t, ev)
	assert.Equal(t, []model.AuditEventName{
		model.EventMintAttempted, model.EventRecordCreated, model.EventMintCompleted,
	}, eventNames(ev))
	assert.Equal(t, scenarioVIN, ev.Entries[0].VIN)
	assert.Equal(t, aliceID, ev.Entries[0].Recipient)
	assert.Nil(t, ev.Entries[0].Record)
	require.NotNil(t, ev.Entries[2].Record)
	assert.Equal(t, uint64(0), ev.Entries[2].Record.ID)

	assert.True(t, h.vinExists(scenarioVIN))
	assert.Equal(t, uint64(1), h.total())

	rec, err := h.cc.GetRecord(h.ctx(strangerID), 0)
	require.NoError(t, err)
	assert.Equal(t, scenarioVIN, rec.VIN)
	assert.Equal(t, 2020, rec.Year)
	assert.Equal(t, uint64(50000), rec.Mileage)
	assert.Equal(t, aliceID, rec.CurrentOwner)
	assert.Equal(t, aliceID, rec.OriginalOwner)
	assert.Equal(t, "tx0002", rec.MintedTxID)
	assert.Equal(t, rec.MintedAt, rec.LastUpdated)
}

func TestMintDuplicateVINRejected(t *testing.T) {
	h := newHarness(t)
	h.init(0)
	h.mustMint(aliceID, scenarioVIN)

	_, err := h.mint(ownerID, bobID, scenarioVIN)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	assert.Nil(t, h.takeEvent())
	assert.Equal(t, uint64(1), h.total())

	rec, err := h.cc.GetRecordByVIN(h.ctx(strangerID), scenarioVIN)
	require.NoError(t, err)
	assert.Equal(t, aliceID, rec.CurrentOwner)
}

func TestMintAssignsSequentialIDs(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	for i := 0; i < 20; i++ {
		id := h.mustMint(aliceID, testVIN(i))
		assert.Equal(t, uint64(i), id)
	}
	assert.Equal(t, uint64(20), h.total())
}

func TestMintYearBounds(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		wantErr bool
	}{
		{name: "below range", year: 1899, wantErr: true},
		{name: "lower bound", year: 1900},
		{name: "upper bound", year: 2100},
		{name: "above range", year: 2101, wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.init(0)

			_, err := h.cc.Mint(h.ctx(ownerID), aliceID, testVIN(i), "Ford", "Model T", tt.year, 0, "", "")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorIs(t, err, ErrInvalidYear)
				assert.Nil(t, h.takeEvent())
				assert.Equal(t, uint64(0), h.total())
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h.takeEvent())
		})
	}
}

func TestMintRejectedInputsLeaveNoTrace(t *testing.T) {
	tests := []struct {
		name      string
		caller    string
		recipient string
		vin       string
		year      int
		mileage   int64
		want      error
	}{
		{name: "short vin", caller: ownerID, recipient: aliceID, vin: "1HGCM82633A00435", year: 2020, want: ErrInvalidIdentifier},
		{name: "vin with symbol", caller: ownerID, recipient: aliceID, vin: "1HGCM82633A00435-", year: 2020, want: ErrInvalidIdentifier},
		{name: "negative mileage", caller: ownerID, recipient: aliceID, vin: scenarioVIN, year: 2020, mileage: -1, want: ErrInvalidMeasure},
		{name: "mileage over limit", caller: ownerID, recipient: aliceID, vin: scenarioVIN, year: 2020, mileage: 100_000_001, want: ErrInvalidMeasure},
		{name: "empty recipient", caller: ownerID, recipient: " ", vin: scenarioVIN, year: 2020, want: ErrInvalidInput},
		{name: "not owner", caller: strangerID, recipient: aliceID, vin: scenarioVIN, year: 2020, want: ErrUnauthorized},
		{name: "delegate cannot mint", caller: delegateID, recipient: aliceID, vin: scenarioVIN, year: 2020, want: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.init(0)
			h.grant(delegateID)

			_, err := h.cc.Mint(h.ctx(tt.caller), tt.recipient, tt.vin, "Honda", "Civic", tt.year, tt.mileage, "", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, h.takeEvent())
			assert.Equal(t, uint64(0), h.total())
			assert.False(t, h.vinExists(tt.vin))
		})
	}
}

func TestMintBeforeInit(t *testing.T) {
	h := newHarness(t)

	_, err := h.mint(ownerID, aliceID, scenarioVIN)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, uint64(0), h.total())
}

func TestMintCeiling(t *testing.T) {
	h := newHarness(t)
	h.init(2)
	h.mustMint(aliceID, testVIN(0))
	h.mustMint(aliceID, testVIN(1))

	_, err := h.mint(ownerID, aliceID, testVIN(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.ErrorIs(t, err, ErrMintLimitReached)

	var re *RegistryError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "maxTokens", re.Field)
	assert.Equal(t, "2", re.Limit)

	assert.Nil(t, h.takeEvent())
	assert.Equal(t, uint64(2), h.total())
	assert.False(t, h.vinExists(testVIN(2)))
}

func TestMintDuplicateCheckedBeforeCeiling(t *testing.T) {
	h := newHarness(t)
	h.init(1)
	h.mustMint(aliceID, scenarioVIN)

	_, err := h.mint(ownerID, aliceID, scenarioVIN)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestMintPauses(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	require.NoError(t, h.cc.PauseMinting(h.ctx(ownerID)))
	_, err := h.mint(ownerID, aliceID, testVIN(0))
	assert.ErrorIs(t, err, ErrMintingPaused)
	assert.ErrorIs(t, err, ErrPaused)

	require.NoError(t, h.cc.UnpauseMinting(h.ctx(ownerID)))
	require.NoError(t, h.cc.Pause(h.ctx(ownerID)))
	_, err = h.mint(ownerID, aliceID, testVIN(0))
	assert.ErrorIs(t, err, ErrRegistryPaused)
	assert.Equal(t, uint64(0), h.total())

	require.NoError(t, h.cc.Unpause(h.ctx(ownerID)))
	id, err := h.mint(ownerID, aliceID, testVIN(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
}

func TestBatchMint(t *testing.T) {
	h := newHarness(t)
	h.init(0)
	h.mustMint(bobID, testVIN(1000))

	ids, err := h.batchMint(ownerID, newBatch(3, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	ev := h.takeEvent()
	require.NotNil(t, ev)
	assert.Len(t, ev.Entries, 9)
	for i, entry := range ev.Entries {
		assert.Equal(t, i, entry.Seq)
	}
	assert.Equal(t, []model.AuditEventName{
		model.EventMintAttempted, model.EventRecordCreated, model.EventMintCompleted,
		model.EventMintAttempted, model.EventRecordCreated, model.EventMintCompleted,
		model.EventMintAttempted, model.EventRecordCreated, model.EventMintCompleted,
	}, eventNames(ev))
	assert.Equal(t, uint64(4), h.total())
}

func TestBatchMintMaximumSize(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	ids, err := h.batchMint(ownerID, newBatch(100, 0))
	require.NoError(t, err)
	assert.Len(t, ids, 100)
	assert.Equal(t, uint64(99), ids[99])
	assert.Equal(t, uint64(100), h.total())
}

func TestBatchMintTooLarge(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	_, err := h.batchMint(ownerID, newBatch(101, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Nil(t, h.takeEvent())
	assert.Equal(t, uint64(0), h.total())
}

func TestBatchMintEmpty(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	_, err := h.batchMint(ownerID, newBatch(0, 0))
	assert.ErrorIs(t, err, ErrCapacity)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Equal(t, uint64(0), h.total())
}

func TestBatchMintArityMismatch(t *testing.T) {
	h := newHarness(t)
	h.init(0)
	b := newBatch(3, 0)
	b.years = b.years[:2]

	_, err := h.batchMint(ownerID, b)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrArityMismatch)
	assert.Equal(t, uint64(0), h.total())
}

func TestBatchMintDuplicateWithinBatchCommitsNothing(t *testing.T) {
	h := newHarness(t)
	h.init(0)
	b := newBatch(5, 0)
	b.vins[3] = b.vins[1]

	_, err := h.batchMint(ownerID, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	var re *RegistryError
	require.True(t, errors.As(err, &re))
	require.NotNil(t, re.BatchIndex)
	assert.Equal(t, 3, *re.BatchIndex)
	assert.Contains(t, err.Error(), "batch entry 3")

	assert.Nil(t, h.takeEvent())
	assert.Equal(t, uint64(0), h.total())
	for _, vin := range b.vins {
		assert.False(t, h.vinExists(vin))
	}
}

func TestBatchMintInvalidEntryCommitsNothing(t *testing.T) {
	h := newHarness(t)
	h.init(0)
	b := newBatch(4, 0)
	b.mileages[2] = 100_000_001

	_, err := h.batchMint(ownerID, b)
	assert.ErrorIs(t, err, ErrInvalidMeasure)
	assert.Equal(t, uint64(0), h.total())
	assert.False(t, h.vinExists(b.vins[0]))
}

func TestBatchMintCrossingCeiling(t *testing.T) {
	h := newHarness(t)
	h.init(3)
	h.mustMint(aliceID, testVIN(1000))

	_, err := h.batchMint(ownerID, newBatch(3, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMintLimitReached)

	var re *RegistryError
	require.True(t, errors.As(err, &re))
	require.NotNil(t, re.BatchIndex)
	assert.Equal(t, 2, *re.BatchIndex)
	assert.Equal(t, uint64(1), h.total())
}

func TestBatchMintRequiresOwner(t *testing.T) {
	h := newHarness(t)
	h.init(0)

	_, err := h.batchMint(strangerID, newBatch(2, 0))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, uint64(0), h.total())
}

func TestBatchMintChecksCallerBeforeSize(t *testing.T) {
	h := newHarness(t)

	_, err := h.batchMint(strangerID, newBatch(101, 0))
	assert.ErrorIs(t, err, ErrNotInitialized)

	h.init(0)
	_, err = h.batchMint(strangerID, newBatch(101, 0))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrBatchTooLarge)

	_, err = h.batchMint(strangerID, newBatch(0, 0))
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, h.cc.PauseMinting(h.ctx(ownerID)))
	_, err = h.batchMint(ownerID, newBatch(101, 0))
	assert.ErrorIs(t, err, ErrMintingPaused)
	assert.Equal(t, uint64(0), h.total())
}
