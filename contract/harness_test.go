package contract

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"vehicleregistry/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	ownerID    = "x509::CN=registry-owner,OU=client::CN=ca.dmv.example.com"
	delegateID = "x509::CN=service-center,OU=client::CN=ca.dmv.example.com"
	strangerID = "x509::CN=stranger,OU=client::CN=ca.other.example.com"
	aliceID    = "x509::CN=alice,OU=client::CN=ca.dmv.example.com"
	bobID      = "x509::CN=bob,OU=client::CN=ca.dmv.example.com"

	scenarioVIN = "1HGCM82633A004352"
)

// fakeIdentity satisfies cid.ClientIdentity with a fixed ID.
type fakeIdentity struct {
	id string
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return "DMVMSP", nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(attrName, attrValue string) error {
	return fmt.Errorf("attribute '%s' not found", attrName)
}
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

// ledgerStub fills in the MockStub queries a peer answers but MockStub
// does not: paginated composite key ranges and key history.
type ledgerStub struct {
	*shimtest.MockStub
	history map[string][]*queryresult.KeyModification
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{
		MockStub: shimtest.NewMockStub("vehicleregistry", nil),
		history:  make(map[string][]*queryresult.KeyModification),
	}
}

// GetStateByPartialCompositeKeyWithPagination pages in key order. As on a
// peer, the bookmark is the first key of the next page and is empty after
// the last page.
func (s *ledgerStub) GetStateByPartialCompositeKeyWithPagination(objectType string, keys []string,
	pageSize int32, bookmark string) (shim.StateQueryIteratorInterface, *pb.QueryResponseMetadata, error) {

	iter, err := s.GetStateByPartialCompositeKey(objectType, keys)
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	page := []*queryresult.KV{}
	next := ""
	for iter.HasNext() {
		kv, err := iter.Next()
		if err != nil {
			return nil, nil, err
		}
		if bookmark != "" && kv.Key < bookmark {
			continue
		}
		if int32(len(page)) == pageSize {
			next = kv.Key
			break
		}
		page = append(page, kv)
	}
	return &kvIterator{items: page}, &pb.QueryResponseMetadata{
		FetchedRecordsCount: int32(len(page)),
		Bookmark:            next,
	}, nil
}

func (s *ledgerStub) GetHistoryForKey(key string) (shim.HistoryQueryIteratorInterface, error) {
	return &historyIterator{items: s.history[key]}, nil
}

type kvIterator struct {
	items []*queryresult.KV
}

func (it *kvIterator) HasNext() bool { return len(it.items) > 0 }
func (it *kvIterator) Close() error  { return nil }
func (it *kvIterator) Next() (*queryresult.KV, error) {
	kv := it.items[0]
	it.items = it.items[1:]
	return kv, nil
}

type historyIterator struct {
	items []*queryresult.KeyModification
}

func (it *historyIterator) HasNext() bool { return len(it.items) > 0 }
func (it *historyIterator) Close() error  { return nil }
func (it *historyIterator) Next() (*queryresult.KeyModification, error) {
	m := it.items[0]
	it.items = it.items[1:]
	return m, nil
}

// harness drives the contract against a ledgerStub, one transaction per ctx call.
type harness struct {
	t     *testing.T
	stub  *ledgerStub
	cc    *VehicleRegistryContract
	txSeq int
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:     t,
		stub:  newLedgerStub(),
		cc:    &VehicleRegistryContract{},
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ctx starts a new transaction for caller. Events left over from earlier
// transactions are dropped.
func (h *harness) ctx(caller string) contractapi.TransactionContextInterface {
	h.drainEvents()
	h.txSeq++
	h.stub.MockTransactionStart(fmt.Sprintf("tx%04d", h.txSeq))
	h.clock = h.clock.Add(time.Minute)
	h.stub.TxTimestamp = timestamppb.New(h.clock)

	ctx := &contractapi.TransactionContext{}
	ctx.SetStub(h.stub)
	ctx.SetClientIdentity(&fakeIdentity{id: caller})
	return ctx
}

func (h *harness) txID() string {
	return h.stub.TxID
}

func (h *harness) drainEvents() {
	for {
		select {
		case <-h.stub.ChaincodeEventsChannel:
		default:
			return
		}
	}
}

// takeEvent returns the RegistryAudit payload of the last transaction, or nil
// if it set none.
func (h *harness) takeEvent() *auditPayload {
	h.t.Helper()
	select {
	case ev := <-h.stub.ChaincodeEventsChannel:
		require.Equal(h.t, auditEventName, ev.EventName)
		var payload auditPayload
		require.NoError(h.t, json.Unmarshal(ev.Payload, &payload))
		return &payload
	default:
		return nil
	}
}

func eventNames(p *auditPayload) []model.AuditEventName {
	if p == nil {
		return nil
	}
	names := make([]model.AuditEventName, 0, len(p.Entries))
	for _, e := range p.Entries {
		names = append(names, e.Event)
	}
	return names
}

func (h *harness) init(maxTokens uint64) {
	h.t.Helper()
	_, err := h.cc.InitRegistry(h.ctx(ownerID), maxTokens)
	require.NoError(h.t, err)
}

func (h *harness) mint(caller, recipient, vin string) (uint64, error) {
	return h.cc.Mint(h.ctx(caller), recipient, vin, "Honda", "Accord", 2020, 50000, "Excellent", "ipfs://meta/"+vin)
}

func (h *harness) mustMint(recipient, vin string) uint64 {
	h.t.Helper()
	id, err := h.mint(ownerID, recipient, vin)
	require.NoError(h.t, err)
	return id
}

func (h *harness) total() uint64 {
	h.t.Helper()
	n, err := h.cc.TotalMinted(h.ctx(strangerID))
	require.NoError(h.t, err)
	return n
}

func (h *harness) vinExists(vin string) bool {
	h.t.Helper()
	ok, err := h.cc.VINExists(h.ctx(strangerID), vin)
	require.NoError(h.t, err)
	return ok
}

func (h *harness) grant(delegate string) {
	h.t.Helper()
	require.NoError(h.t, h.cc.GrantDelegate(h.ctx(ownerID), delegate))
}

// testVIN returns a distinct well-formed VIN for index i.
func testVIN(i int) string {
	return fmt.Sprintf("1HGCM8263%08d", i)
}

type batchInput struct {
	recipients, vins, makes, models, conditions, uris []string
	years                                             []int
	mileages                                          []int64
}

func newBatch(n, offset int) *batchInput {
	b := &batchInput{}
	for i := 0; i < n; i++ {
		b.recipients = append(b.recipients, aliceID)
		b.vins = append(b.vins, testVIN(offset+i))
		b.makes = append(b.makes, "Toyota")
		b.models = append(b.models, "Corolla")
		b.years = append(b.years, 2015+i%10)
		b.mileages = append(b.mileages, int64(1000*i))
		b.conditions = append(b.conditions, "Good")
		b.uris = append(b.uris, "")
	}
	return b
}

func (h *harness) batchMint(caller string, b *batchInput) ([]uint64, error) {
	return h.cc.BatchMint(h.ctx(caller), b.recipients, b.vins, b.makes, b.models, b.years, b.mileages, b.conditions, b.uris)
}
