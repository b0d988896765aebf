package providers

import "testing"

func TestGetProviderClient(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		apiKey   string
		wantErr  bool
	}{
		{name: "retell", provider: ProviderRetell, apiKey: "key_r"},
		{name: "vapi", provider: ProviderVapi, apiKey: "key_v"},
		{name: "elevenlabs", provider: ProviderElevenLabs, apiKey: "key_e"},
		{name: "blank key", provider: ProviderRetell, apiKey: "", wantErr: true},
		{name: "unknown provider", provider: Provider("twilio"), apiKey: "key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clt, err := GetProviderClient(tt.provider, tt.apiKey)
			if tt.wantErr {
				if err == nil {
					t.Fatal("GetProviderClient() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetProviderClient() error = %v, want nil", err)
			}
			if clt.Provider() != tt.provider {
				t.Errorf("Provider() = %v, want %v", clt.Provider(), tt.provider)
			}
		})
	}
}

func TestGetAgencyProviders_OnlyConfiguredVendors(t *testing.T) {
	result := GetAgencyProviders(AgencyCredentials{VapiAPIKey: "key_v"})

	if len(result) != 1 {
		t.Fatalf("GetAgencyProviders() returned %d providers, want 1", len(result))
	}
	if result[0].Provider != ProviderVapi {
		t.Errorf("provider = %v, want %v", result[0].Provider, ProviderVapi)
	}
	if result[0].Client == nil {
		t.Error("client = nil, want constructed client")
	}
}

func TestGetAgencyProviders_NoKeys(t *testing.T) {
	if got := GetAgencyProviders(AgencyCredentials{}); len(got) != 0 {
		t.Errorf("GetAgencyProviders() returned %d providers, want 0", len(got))
	}
}

func TestGetAgencyProviders_AllKeys(t *testing.T) {
	result := GetAgencyProviders(AgencyCredentials{
		RetellAPIKey:     "r",
		VapiAPIKey:       "v",
		ElevenLabsAPIKey: "e",
	})

	if len(result) != 3 {
		t.Fatalf("GetAgencyProviders() returned %d providers, want 3", len(result))
	}
	for i, want := range All() {
		if result[i].Provider != want {
			t.Errorf("result[%d].Provider = %v, want %v", i, result[i].Provider, want)
		}
	}
}
