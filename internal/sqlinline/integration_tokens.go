package sqlinline

// Model provider API keys. The worker and API fall back to these when the
// environment carries no key.

const QSelectIntegrationToken = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7
select token
from integration_tokens
where provider = lower($1::text);
`

const QUpsertIntegrationToken = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), lower($1::text), $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

const QDeleteIntegrationToken = `--sql 14af4dd9-4232-441b-821d-4a55626ee2c3
delete from integration_tokens
where provider = lower($1::text);
`

// QListIntegrationTokens never returns the token itself.
const QListIntegrationTokens = `--sql 5b0e7c2a-93d4-4f1e-bb8a-2c6f41d9e071
select provider,
       coalesce(properties->>'source', ''),
       right(token, 4),
       updated_at
from integration_tokens
order by provider;
`
