package leads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpilot/internal/leads"
	"leadpilot/internal/testsupport"
)

func TestCreateLeadSplitsFullName(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	tests := []struct {
		name      string
		fullName  string
		email     string
		wantFirst string
		wantLast  string
	}{
		{"two parts", "Ada Lovelace", "ada@example.com", "Ada", "Lovelace"},
		{"three parts", "Jean Claude Damme", "jc@example.com", "Jean", "Claude Damme"},
		{"single name", "Cher", "cher@example.com", "Cher", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := &leads.Lead{
				FullName:    tt.fullName,
				Email:       tt.email,
				CompanyName: "Acme",
				Source:      leads.SourceForm,
				LeadType:    leads.TypeCold,
			}
			require.NoError(t, leads.CreateLead(db, lead))
			assert.Equal(t, tt.wantFirst, lead.FirstName)
			assert.Equal(t, tt.wantLast, lead.LastName)
		})
	}
}

func TestCreateLeadLowercasesEmail(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	lead := &leads.Lead{
		FullName:    "Loud Mailer",
		Email:       "LOUD@Example.COM",
		CompanyName: "Acme",
		Source:      leads.SourceSocial,
		LeadType:    leads.TypeWarm,
	}
	require.NoError(t, leads.CreateLead(db, lead))
	assert.Equal(t, "loud@example.com", lead.Email)

	found, err := leads.GetLeadByEmail(db, "loud@example.com")
	require.NoError(t, err)
	assert.Equal(t, lead.ID, found.ID)
}

func TestCreateLeadValidation(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	// Missing email
	err := leads.CreateLead(db, &leads.Lead{
		FullName: "No Email", CompanyName: "Acme",
		Source: leads.SourceForm, LeadType: leads.TypeCold,
	})
	require.Error(t, err)

	// Unknown source
	err = leads.CreateLead(db, &leads.Lead{
		FullName: "Bad Source", Email: "bad-source@example.com", CompanyName: "Acme",
		Source: "carrier_pigeon", LeadType: leads.TypeCold,
	})
	require.Error(t, err)

	// Unknown type
	err = leads.CreateLead(db, &leads.Lead{
		FullName: "Bad Type", Email: "bad-type@example.com", CompanyName: "Acme",
		Source: leads.SourceForm, LeadType: "lukewarm",
	})
	require.Error(t, err)
}

func TestGetLeadsFilter(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	fixtures := []leads.Lead{
		{FullName: "A One", Email: "a1@example.com", CompanyName: "Acme", Source: leads.SourceForm, LeadType: leads.TypeCold},
		{FullName: "B Two", Email: "b2@example.com", CompanyName: "Acme", Source: leads.SourceForm, LeadType: leads.TypeWarm},
		{FullName: "C Three", Email: "c3@example.com", CompanyName: "Acme", Source: leads.SourceNewsletter, LeadType: leads.TypeWarm},
	}
	for i := range fixtures {
		require.NoError(t, leads.CreateLead(db, &fixtures[i]))
	}

	all, err := leads.GetLeads(db, leads.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	warm, err := leads.GetLeads(db, leads.Filter{LeadType: leads.TypeWarm})
	require.NoError(t, err)
	assert.Len(t, warm, 2)

	warmForms, err := leads.GetLeads(db, leads.Filter{Source: leads.SourceForm, LeadType: leads.TypeWarm})
	require.NoError(t, err)
	require.Len(t, warmForms, 1)
	assert.Equal(t, "b2@example.com", warmForms[0].Email)
}

func TestDeleteLead(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	lead := testsupport.CreateTestLead(t, db, "delete-me@example.com")
	require.NoError(t, leads.DeleteLead(db, lead.ID))

	_, err := leads.GetLeadByID(db, lead.ID)
	require.Error(t, err)
}
