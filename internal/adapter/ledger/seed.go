package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"manguechain/internal/core/domain"
)

// Seed inserts demo cooperatives and campaigns into an in-process
// ledger for dev mode.
func Seed(ctx context.Context, m *Memory) error {
	coops := []struct {
		vault, name, cnpj, cpf, email string
	}{
		{"0x2222222222222222222222222222222222222222", "Cooperativa Mangue Limpo", "12.345.678/0001-99", "123.456.789-00", "contato@manguelimpo.org"},
		{"0x5555555555555555555555555555555555555555", "Cooperativa Recicla Mais", "98.765.432/0001-11", "987.654.321-00", "contato@reciclamais.org"},
	}
	for _, c := range coops {
		coop := domain.Cooperative{Vault: c.vault, Name: c.name, TaxID: c.cnpj, PersonalID: c.cpf, Email: c.email}
		if _, err := m.RegisterCooperative(ctx, uuid.NewString(), coop); err != nil {
			return fmt.Errorf("seed cooperative %s: %w", c.name, err)
		}
	}

	addr1, err := m.Cooperative(ctx, 1)
	if err != nil {
		return err
	}
	addr2, err := m.Cooperative(ctx, 2)
	if err != nil {
		return err
	}

	campaigns := []struct {
		coop, name, description, area string
		goal                          int64
	}{
		{addr1.Address, "Campanha Limpeza do Mangue", "Limpeza de resíduos sólidos no manguezal do Recife.", "Recife", 100000},
		{addr2.Address, "Recuperação de Fauna", "Apoio à recuperação de espécies nativas do mangue.", "Olinda", 200000},
	}
	for _, c := range campaigns {
		if _, err := m.CreateCampaign(ctx, uuid.NewString(), c.coop, c.name, c.description, c.area, c.goal); err != nil {
			return fmt.Errorf("seed campaign %s: %w", c.name, err)
		}
	}
	return nil
}
